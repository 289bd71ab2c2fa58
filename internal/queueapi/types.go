package queueapi

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ActiveDownloadsResponse mirrors /downloads/active.
type ActiveDownloadsResponse struct {
	ActiveDownloads []json.RawMessage `json:"active_downloads"`
}

// BookSummary is one search result.
type BookSummary struct {
	ID       Text `json:"id"`
	Title    Text `json:"title"`
	Author   Text `json:"author"`
	Year     Text `json:"year"`
	Language Text `json:"language"`
	Format   Text `json:"format"`
	Size     Text `json:"size"`
	Preview  Text `json:"preview"`
}

// BookDetails is the record returned by /info.
type BookDetails struct {
	BookSummary
	Publisher Text            `json:"publisher"`
	Info      map[string]Text `json:"info"`
}

// Text accepts either a JSON string, a number or a list of strings and keeps
// a display form. The service is loose about these fields.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*t = ""
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '[':
		var parts []Text
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		var b bytes.Buffer
		for i, p := range parts {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(string(p))
		}
		*t = Text(b.String())
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			*t = Text(strconv.Quote(string(trimmed)))
			return nil
		}
		*t = Text(n.String())
	}
	return nil
}

// SearchQuery holds the basic query and advanced filters for /search.
type SearchQuery struct {
	Query   string
	ISBN    string
	Author  string
	Title   string
	Lang    string
	Sort    string
	Content string
	Formats []string
}
