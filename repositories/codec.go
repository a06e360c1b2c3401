package repositories

import (
	"time"

	"outmentor/domain"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Values are stored in the protobuf wire format so records stay readable by
// any protobuf tooling and tolerate added fields.

const (
	profileID protowire.Number = iota + 1
	profileKind
	profileName
	profileState
	profileCity
	profileBio
	profileCreatedAt
	profileUpdatedAt
)

const (
	mentorFTC protowire.Number = iota + 10
	mentorFLL
	mentorKnowledgeAreas
)

const (
	teamProgram protowire.Number = iota + 20
	teamNumber
	teamInterestAreas
)

const (
	connID protowire.Number = iota + 1
	connMentorID
	connTeamID
	connInitiatorID
	connStatus
	connCreatedAt
	connRespondedAt
	connLastMessageAt
)

const (
	msgID protowire.Number = iota + 1
	msgConnectionID
	msgSeq
	msgSenderID
	msgContent
	msgCreatedAt
)

const (
	meetingID protowire.Number = iota + 1
	meetingConnectionID
	meetingTitle
	meetingScheduledAt
	meetingJoinURL
	meetingCreatedBy
	meetingCreatedAt
)

const (
	cursorSeq protowire.Number = iota + 1
	cursorLastAt
)

type encoder struct {
	b []byte
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

func (e *encoder) strings(num protowire.Number, vs []string) {
	for _, v := range vs {
		e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
		e.b = protowire.AppendString(e.b, v)
	}
}

func (e *encoder) uint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) bool(num protowire.Number, v bool) {
	e.uint(num, protowire.EncodeBool(v))
}

// time writes a nested {1: seconds, 2: nanos} message, the layout of google.protobuf.Timestamp,
// so any instant a time.Time holds survives the round trip.
func (e *encoder) time(num protowire.Number, t time.Time) {
	if t.IsZero() {
		return
	}
	var ts []byte
	ts = protowire.AppendTag(ts, 1, protowire.VarintType)
	ts = protowire.AppendVarint(ts, uint64(t.Unix()))
	ts = protowire.AppendTag(ts, 2, protowire.VarintType)
	ts = protowire.AppendVarint(ts, uint64(t.Nanosecond()))
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, ts)
}

type field struct {
	varint uint64
	bytes  []byte
}

// record is a decoded message indexed by field number. Repeated fields keep every occurrence.
type record map[protowire.Number][]field

func parseRecord(b []byte) (record, error) {
	rec := make(record)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]

		var f field
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		rec[num] = append(rec[num], f)
	}
	return rec, nil
}

func (r record) last(num protowire.Number) (field, bool) {
	fs := r[num]
	if len(fs) == 0 {
		return field{}, false
	}
	return fs[len(fs)-1], true
}

func (r record) string(num protowire.Number) string {
	f, _ := r.last(num)
	return string(f.bytes)
}

func (r record) strings(num protowire.Number) []string {
	var res []string
	for _, f := range r[num] {
		res = append(res, string(f.bytes))
	}
	return res
}

func (r record) uint(num protowire.Number) uint64 {
	f, _ := r.last(num)
	return f.varint
}

func (r record) bool(num protowire.Number) bool {
	return protowire.DecodeBool(r.uint(num))
}

func (r record) time(num protowire.Number) time.Time {
	f, ok := r.last(num)
	if !ok {
		return time.Time{}
	}
	if f.bytes == nil {
		// Records written before the nested layout hold UnixNano as a varint.
		return time.Unix(0, int64(f.varint)).UTC()
	}
	ts, err := parseRecord(f.bytes)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(int64(ts.uint(1)), int64(ts.uint(2))).UTC()
}

func (r record) uuid(num protowire.Number) (uuid.UUID, error) {
	return uuid.Parse(r.string(num))
}

func encodeProfile(p domain.Profile) []byte {
	var e encoder
	e.string(profileID, p.ID)
	e.string(profileKind, string(p.Kind))
	e.string(profileName, p.Name)
	e.string(profileState, p.State)
	e.string(profileCity, p.City)
	e.string(profileBio, p.Bio)
	e.time(profileCreatedAt, p.CreatedAt)
	e.time(profileUpdatedAt, p.UpdatedAt)
	switch d := p.Details.(type) {
	case domain.MentorDetails:
		e.bool(mentorFTC, d.FTC)
		e.bool(mentorFLL, d.FLL)
		e.strings(mentorKnowledgeAreas, d.KnowledgeAreas)
	case domain.TeamDetails:
		e.string(teamProgram, string(d.Program))
		e.string(teamNumber, d.Number)
		e.strings(teamInterestAreas, d.InterestAreas)
	}
	return e.b
}

func decodeProfile(b []byte) (domain.Profile, error) {
	rec, err := parseRecord(b)
	if err != nil {
		return domain.Profile{}, err
	}
	p := domain.Profile{
		ID:        rec.string(profileID),
		Kind:      domain.Kind(rec.string(profileKind)),
		Name:      rec.string(profileName),
		State:     rec.string(profileState),
		City:      rec.string(profileCity),
		Bio:       rec.string(profileBio),
		CreatedAt: rec.time(profileCreatedAt),
		UpdatedAt: rec.time(profileUpdatedAt),
	}
	switch p.Kind {
	case domain.KindMentor:
		p.Details = domain.MentorDetails{
			FTC:            rec.bool(mentorFTC),
			FLL:            rec.bool(mentorFLL),
			KnowledgeAreas: rec.strings(mentorKnowledgeAreas),
		}
	case domain.KindTeam:
		p.Details = domain.TeamDetails{
			Program:       domain.ProgramType(rec.string(teamProgram)),
			Number:        rec.string(teamNumber),
			InterestAreas: rec.strings(teamInterestAreas),
		}
	}
	return p, nil
}

func encodeConnection(c domain.Connection) []byte {
	var e encoder
	e.string(connID, c.ID.String())
	e.string(connMentorID, c.MentorID)
	e.string(connTeamID, c.TeamID)
	e.string(connInitiatorID, c.InitiatorID)
	e.string(connStatus, string(c.Status))
	e.time(connCreatedAt, c.CreatedAt)
	e.time(connRespondedAt, c.RespondedAt)
	e.time(connLastMessageAt, c.LastMessageAt)
	return e.b
}

func decodeConnection(b []byte) (domain.Connection, error) {
	rec, err := parseRecord(b)
	if err != nil {
		return domain.Connection{}, err
	}
	id, err := rec.uuid(connID)
	if err != nil {
		return domain.Connection{}, err
	}
	return domain.Connection{
		ID:            id,
		MentorID:      rec.string(connMentorID),
		TeamID:        rec.string(connTeamID),
		InitiatorID:   rec.string(connInitiatorID),
		Status:        domain.ConnectionStatus(rec.string(connStatus)),
		CreatedAt:     rec.time(connCreatedAt),
		RespondedAt:   rec.time(connRespondedAt),
		LastMessageAt: rec.time(connLastMessageAt),
	}, nil
}

func encodeMessage(m domain.Message) []byte {
	var e encoder
	e.string(msgID, m.ID.String())
	e.string(msgConnectionID, m.ConnectionID.String())
	e.uint(msgSeq, m.Seq)
	e.string(msgSenderID, m.SenderID)
	e.string(msgContent, m.Content)
	e.time(msgCreatedAt, m.CreatedAt)
	return e.b
}

func decodeMessage(b []byte) (domain.Message, error) {
	rec, err := parseRecord(b)
	if err != nil {
		return domain.Message{}, err
	}
	id, err := rec.uuid(msgID)
	if err != nil {
		return domain.Message{}, err
	}
	connectionID, err := rec.uuid(msgConnectionID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:           id,
		ConnectionID: connectionID,
		Seq:          rec.uint(msgSeq),
		SenderID:     rec.string(msgSenderID),
		Content:      rec.string(msgContent),
		CreatedAt:    rec.time(msgCreatedAt),
	}, nil
}

func encodeMeeting(m domain.Meeting) []byte {
	var e encoder
	e.string(meetingID, m.ID.String())
	e.string(meetingConnectionID, m.ConnectionID.String())
	e.string(meetingTitle, m.Title)
	e.time(meetingScheduledAt, m.ScheduledAt)
	e.string(meetingJoinURL, m.JoinURL)
	e.string(meetingCreatedBy, m.CreatedBy)
	e.time(meetingCreatedAt, m.CreatedAt)
	return e.b
}

func decodeMeeting(b []byte) (domain.Meeting, error) {
	rec, err := parseRecord(b)
	if err != nil {
		return domain.Meeting{}, err
	}
	id, err := rec.uuid(meetingID)
	if err != nil {
		return domain.Meeting{}, err
	}
	connectionID, err := rec.uuid(meetingConnectionID)
	if err != nil {
		return domain.Meeting{}, err
	}
	return domain.Meeting{
		ID:           id,
		ConnectionID: connectionID,
		Title:        rec.string(meetingTitle),
		ScheduledAt:  rec.time(meetingScheduledAt),
		JoinURL:      rec.string(meetingJoinURL),
		CreatedBy:    rec.string(meetingCreatedBy),
		CreatedAt:    rec.time(meetingCreatedAt),
	}, nil
}

// seqCursor is the per-connection append state: last assigned sequence and its timestamp.
type seqCursor struct {
	Seq    uint64
	LastAt time.Time
}

func encodeCursor(c seqCursor) []byte {
	var e encoder
	e.uint(cursorSeq, c.Seq)
	e.time(cursorLastAt, c.LastAt)
	return e.b
}

func decodeCursor(b []byte) (seqCursor, error) {
	rec, err := parseRecord(b)
	if err != nil {
		return seqCursor{}, err
	}
	return seqCursor{Seq: rec.uint(cursorSeq), LastAt: rec.time(cursorLastAt)}, nil
}
