package keepsake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jun/babymemories/internal/model"
)

// DefaultBirthday is used until a birthday is set.
const DefaultBirthday = "2024-01-01"

// Birthday is the timer widget state.
type Birthday struct {
	Birthday string        `json:"birthday"`
	Elapsed  model.Elapsed `json:"elapsed"`
}

// Birthday returns the stored birthday and the time elapsed since it.
func (s *Service) Birthday(ctx context.Context) (Birthday, error) {
	date, err := s.birthday.Load(ctx, BirthdayKey, func() string { return DefaultBirthday })
	if err != nil {
		return Birthday{}, err
	}
	return s.birthdayView(date)
}

// SetBirthday stores a YYYY-MM-DD birthday.
func (s *Service) SetBirthday(ctx context.Context, date string) (Birthday, error) {
	date = strings.TrimSpace(date)
	if !validDate(date) {
		return Birthday{}, fmt.Errorf("%w: birthday must be YYYY-MM-DD", ErrInvalid)
	}
	_, err := s.birthday.Update(ctx, BirthdayKey, func() string { return DefaultBirthday }, func(v *string) error {
		*v = date
		return nil
	})
	if err != nil {
		return Birthday{}, err
	}
	return s.birthdayView(date)
}

func (s *Service) birthdayView(date string) (Birthday, error) {
	born, err := time.Parse(dateLayout, date)
	if err != nil {
		return Birthday{}, fmt.Errorf("stored birthday %q: %w", date, err)
	}
	return Birthday{Birthday: date, Elapsed: ElapsedSince(born, s.now())}, nil
}

// ElapsedSince splits now-born into days, hours, minutes and seconds. A
// birthday in the future yields zero.
func ElapsedSince(born, now time.Time) model.Elapsed {
	d := now.Sub(born)
	if d < 0 {
		return model.Elapsed{}
	}
	total := int64(d / time.Second)
	return model.Elapsed{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}
