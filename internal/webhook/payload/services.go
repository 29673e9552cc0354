package payload

import "github.com/billora/billora/internal/service"

// Services container for all services needed by payload builders
type Services struct {
	InvoiceService service.InvoiceService
}

func NewServices(invoiceService service.InvoiceService) *Services {
	return &Services{InvoiceService: invoiceService}
}
