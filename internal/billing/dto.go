package billing

type WebhookResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	GarageID string `json:"garage_id,omitempty"`
}

type PortalResponse struct {
	URL string `json:"url"`
}
