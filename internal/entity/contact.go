package entity

import "time"

const ContactStatusUnread = "unread"

// ContactMessage is a contact form submission. Fields holds whatever the
// sender submitted.
type ContactMessage struct {
	ID        string
	Fields    map[string]interface{}
	CreatedAt time.Time
	Status    string
}

// Field returns the submitted string value for key, or "".
func (c *ContactMessage) Field(key string) string {
	if c.Fields == nil {
		return ""
	}
	s, _ := c.Fields[key].(string)
	return s
}
