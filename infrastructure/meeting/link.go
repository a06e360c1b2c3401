package meeting

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"outmentor/contract"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// LinkProvider derives the join link of a meeting from a keyed BLAKE2b-256 digest
// of the connection id and the scheduled time. Links are recorded, never checked.
type LinkProvider struct {
	baseURL string
	secret  []byte
}

var _ contract.MeetingLinkProvider = (*LinkProvider)(nil)

// NewLinkProvider fails when the secret is longer than the 64 bytes a BLAKE2b key can hold.
func NewLinkProvider(baseURL, secret string) (*LinkProvider, error) {
	if len(secret) > blake2b.Size {
		return nil, fmt.Errorf("meeting secret longer than %d bytes", blake2b.Size)
	}
	return &LinkProvider{baseURL: strings.TrimRight(baseURL, "/"), secret: []byte(secret)}, nil
}

func (p *LinkProvider) NewLink(_ context.Context, connectionID uuid.UUID, at time.Time) (string, error) {
	h, err := blake2b.New256(p.secret)
	if err != nil {
		return "", err
	}
	h.Write(connectionID[:])
	var ts [12]byte
	binary.BigEndian.PutUint64(ts[:8], uint64(at.Unix()))
	binary.BigEndian.PutUint32(ts[8:], uint32(at.Nanosecond()))
	h.Write(ts[:])
	return p.baseURL + "/" + hex.EncodeToString(h.Sum(nil)[:16]), nil
}
