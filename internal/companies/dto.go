package companies

// CompanyForm is the request payload for creating or updating a
// company. Updates carry the id and the entity version read last.
type CompanyForm struct {
	ID             int64  `json:"id,omitempty"`
	EntityVersion  int64  `json:"entity_version,omitempty"`
	BusinessName   string `json:"business_name"`
	InvoiceAddress string `json:"invoice_address"`
	City           string `json:"city"`
	PostalCode     string `json:"postal_code"`
	Nation         string `json:"nation"`
	VATNumber      string `json:"vat_number"`
}

func (f CompanyForm) toModel() *Company {
	c := &Company{
		BusinessName:   f.BusinessName,
		InvoiceAddress: f.InvoiceAddress,
		City:           f.City,
		PostalCode:     f.PostalCode,
		Nation:         f.Nation,
		VATNumber:      f.VATNumber,
	}
	c.ID = f.ID
	c.EntityVersion = f.EntityVersion
	return c
}
