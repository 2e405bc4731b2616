package devenv

// PortalTestConfig is read from <dev_state>/bsaonline_test.json5 by the
// tests that talk to the live portal, they are skipped when it is missing.
type PortalTestConfig struct {
	BaseUrl         string `json:"base_url"`
	MunicipalityUID string `json:"municipality_uid"`
	City            string `json:"city"`
	AccountNumber   string `json:"account_number"`
	Address         string `json:"address"`
	Driver          string `json:"driver"`
}
