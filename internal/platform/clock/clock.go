package clock

import "time"

// Zone reports the wall clock in a single configured location.
type Zone struct {
	Location *time.Location
}

func New(name string) (Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, err
	}
	return Zone{Location: loc}, nil
}

func (z Zone) Now() time.Time {
	return time.Now().In(z.Location)
}

// Fixed always reports the same instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time {
	return f.At
}
