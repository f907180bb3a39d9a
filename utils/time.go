package utils

import "time"

// InZone converts t to the named IANA zone, falling back to UTC.
func InZone(t time.Time, zone string) time.Time {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return t.UTC()
	}
	return t.In(loc)
}

// FormatForMail renders t the way notification emails show it.
func FormatForMail(t time.Time, zone string) string {
	return InZone(t, zone).Format("Mon, 02 Jan 2006 15:04 MST")
}
