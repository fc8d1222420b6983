package facturae

import "time"

const dateLayout = "2006-01-02"

// Date is a calendar date rendered in the schema's ISO form.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalText renders the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Format(dateLayout)), nil
}

// UnmarshalText parses a YYYY-MM-DD date.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := time.Parse(dateLayout, string(text))
	if err != nil {
		return err
	}
	d.Time = parsed
	return nil
}
