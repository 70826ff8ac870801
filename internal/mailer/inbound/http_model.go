package inbound

import "net/http"

type SendEmailRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Text     string `json:"text"`
	HTML     string `json:"html"`
	Provider string `json:"provider"`
}

type SendEmailResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

func (SendEmailResponse) StatusCode() int {
	return http.StatusAccepted
}

type HealthResponse struct {
	Status string `json:"status"`
}
