// internal/workers/data-access/fetch-isp-account/models.go
package fetchispaccount

import "isp-assistant/internal/common/validation"

type Input struct {
	SessionID  string `json:"sessionId,omitempty"`
	Identifier string `json:"identifier"`
}

type Output struct {
	SessionID         string `json:"sessionId"`
	Found             bool   `json:"found"`
	Message           string `json:"message"`
	AccountID         string `json:"accountId,omitempty"`
	TaxID             string `json:"taxId,omitempty"`
	ISPName           string `json:"ispName,omitempty"`
	Status            string `json:"status,omitempty"`
	TotalBilled       string `json:"totalBilled,omitempty"`
	ProductCount      int    `json:"productCount"`
	ContractedTickets int64  `json:"contractedTickets"`
	BillableTickets   int64  `json:"billableTickets"`
}

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["identifier"],
  "properties": {
    "sessionId": {"type": "string"},
    "identifier": {"type": "string", "minLength": 1, "maxLength": 200}
  }
}`)
