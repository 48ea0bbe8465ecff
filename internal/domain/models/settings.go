package models

// MaskedPassword is what the settings API shows instead of a stored password.
const MaskedPassword = "******"

// BillingSettings are the invoice and collection preferences of the operator.
type BillingSettings struct {
	CompanyName    string `json:"companyName"`
	CompanyAddress string `json:"companyAddress"`
	CompanyContact string `json:"companyContact"`
	InvoiceFooter  string `json:"invoiceFooter"`
	LogoURL        string `json:"logoUrl"`
	AutoDropDate   int    `json:"autoDropDate"` // day of month unpaid users are isolated
}

// DefaultBillingSettings is used until the operator saves their own.
func DefaultBillingSettings() BillingSettings {
	return BillingSettings{
		CompanyName:    "Mikrotik Manager",
		CompanyAddress: "Jalan Raya Internet No. 1",
		CompanyContact: "081234567890",
		InvoiceFooter:  "Terima kasih atas kepercayaan Anda.",
		LogoURL:        "",
		AutoDropDate:   10,
	}
}

// EmailSettings configure the SMTP account used for billing mail.
type EmailSettings struct {
	Host       string `json:"host,omitempty"`
	Port       int    `json:"port,omitempty"`
	Secure     bool   `json:"secure,omitempty"`
	User       string `json:"user,omitempty"`
	Password   string `json:"password,omitempty"`
	From       string `json:"from,omitempty"`
	AdminEmail string `json:"adminEmail,omitempty"`
}

// Configured reports whether enough is set to send mail.
func (e EmailSettings) Configured() bool {
	return e.Host != "" && e.AdminEmail != ""
}

// SettingsPayload is the shape read and written by the settings endpoint.
type SettingsPayload struct {
	BillingSettings
	Email *EmailSettings `json:"email,omitempty"`
}
