package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entry is one raw Badger record, decoded for operators.
type Entry struct {
	Key    string
	Type   string
	Detail string
	Size   int
}

// Describe decodes val according to the family of key. Unknown or corrupt records stay RAW.
func Describe(key string, val []byte) Entry {
	e := Entry{Key: key, Type: "RAW", Detail: fmt.Sprintf("%d bytes", len(val)), Size: len(val)}
	family, _, _ := strings.Cut(key, ":")

	switch family {
	case "profile":
		if p, err := decodeProfile(val); err == nil {
			e.Type = "PROFILE"
			e.Detail = fmt.Sprintf("%s %q %s/%s", p.Kind, p.Name, p.City, p.State)
		}
	case "conn":
		if c, err := decodeConnection(val); err == nil {
			e.Type = "CONNECTION"
			e.Detail = fmt.Sprintf("%s mentor=%s team=%s by=%s", c.Status, c.MentorID, c.TeamID, c.InitiatorID)
		}
	case "pair":
		e.Type = "PAIR"
		e.Detail = "-> " + string(val)
	case "member":
		e.Type = "MEMBER"
		e.Detail = "-"
	case "msg":
		if m, err := decodeMessage(val); err == nil {
			e.Type = "MESSAGE"
			e.Detail = fmt.Sprintf("#%d %s: %s", m.Seq, m.SenderID, abbreviate(m.Content, 60))
		}
	case "seq":
		if c, err := decodeCursor(val); err == nil {
			e.Type = "CURSOR"
			e.Detail = fmt.Sprintf("last=%d at %s", c.Seq, c.LastAt.Format("2006-01-02 15:04:05"))
		}
	case "meeting":
		if m, err := decodeMeeting(val); err == nil {
			e.Type = "MEETING"
			e.Detail = fmt.Sprintf("%q at %s %s", m.Title, m.ScheduledAt.Format("2006-01-02 15:04"), m.JoinURL)
		}
	}
	return e
}

// Dump describes the records under prefix in key order, at most limit of them when limit > 0.
func Dump(ctx context.Context, db *badger.DB, prefix string, limit int) ([]Entry, error) {
	var res []Entry
	err := view(ctx, db, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(res) == limit {
				return nil
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			res = append(res, Describe(string(item.Key()), val))
		}
		return nil
	})
	return res, err
}

func abbreviate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
