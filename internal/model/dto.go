package model

type ComplaintDetail struct {
	Complaint     Complaint       `json:"complaint"`
	Remarks       []Remark        `json:"remarks"`
	Forwards      []ForwardRecord `json:"forwards"`
	TransportNote *string         `json:"transport_note"`
	CheckingNote  *string         `json:"checking_note"`
}

type NotificationInbox struct {
	Items       []Notification `json:"items"`
	UnreadCount int64          `json:"unread_count"`
}
