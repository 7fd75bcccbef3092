package records

import (
	"time"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

// MaxIdentityLength is the largest identity in bytes that can be persisted.
const MaxIdentityLength = 256

// Record is the durable score of an attendee across discovery sessions.
type Record struct {
	Identity    string
	LastUpdated time.Time
	Score       uint64
}

// IncrementScoreByAmount adds amount to the score and marks the record updated at now.
// A zero amount leaves the record untouched.
func (r *Record) IncrementScoreByAmount(amount uint64, now time.Time) {
	if amount == 0 {
		return
	}
	r.Score += amount
	if now.After(r.LastUpdated) {
		r.LastUpdated = now
	}
}

func (r *Record) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	if r == nil {
		return nil
	}
	encoder.AddString("identity", r.Identity)
	encoder.AddTime("last updated", r.LastUpdated)
	encoder.AddUint64("score", r.Score)
	return nil
}

// EncodeScale implements scale codec interface.
func (r *Record) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeByteSliceWithLimit(enc, []byte(r.Identity), MaxIdentityLength)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		var nanos uint64
		if !r.LastUpdated.IsZero() {
			nanos = uint64(r.LastUpdated.UnixNano())
		}
		n, err := scale.EncodeCompact64(enc, nanos)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, r.Score)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (r *Record) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeByteSliceWithLimit(dec, MaxIdentityLength)
		if err != nil {
			return total, err
		}
		total += n
		r.Identity = string(field)
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		if field == 0 {
			r.LastUpdated = time.Time{}
		} else {
			r.LastUpdated = time.Unix(0, int64(field)).UTC()
		}
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		r.Score = field
	}
	return total, nil
}
