package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Response is the list envelope returned by maccms-style aggregator APIs.
type Response struct {
	Code  int        `json:"code"`
	Msg   string     `json:"msg"`
	Total FlexString `json:"total"`
	List  []Item     `json:"list"`
}

// Item is a single video record. Only the fields used by the proxy are decoded.
type Item struct {
	ID       FlexString `json:"vod_id"`
	Name     string     `json:"vod_name"`
	Pic      string     `json:"vod_pic"`
	Remarks  string     `json:"vod_remarks"`
	TypeName string     `json:"type_name"`
	Content  string     `json:"vod_content"`
	PlayFrom string     `json:"vod_play_from"`
	PlayURL  string     `json:"vod_play_url"`
}

// FlexString decodes a JSON string or number into a string.
// Upstreams disagree on whether ids are numeric.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("vod_id: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
