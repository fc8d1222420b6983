package mapping

import (
	"fmt"
	"os"
)

// Config is the issuer identity consumed by the mapping engine: the system
// operator acting as the document's third-party intermediary. It is plain
// configuration passed into Build, never ambient state.
type Config struct {
	TaxNumber     string             `toml:"tax_number"`
	CorporateName string             `toml:"corporate_name"`
	TradeName     string             `toml:"trade_name"`
	Registration  RegistrationConfig `toml:"registration"`
	Address       AddressConfig      `toml:"address"`
	Contact       ContactConfig      `toml:"contact"`
}

// RegistrationConfig is the issuer's mercantile registry entry.
type RegistrationConfig struct {
	Book     string `toml:"book"`
	Folio    string `toml:"folio"`
	Section  string `toml:"section"`
	Sheet    string `toml:"sheet"`
	Volume   string `toml:"volume"`
	Location string `toml:"location"`
}

// AddressConfig is the issuer's postal address.
type AddressConfig struct {
	Address     string `toml:"address"`
	PostCode    string `toml:"post_code"`
	Town        string `toml:"town"`
	Province    string `toml:"province"`
	CountryCode string `toml:"country_code"`
}

// ContactConfig is the issuer's contact details.
type ContactConfig struct {
	Telephone      string `toml:"telephone"`
	TeleFax        string `toml:"telefax"`
	WebAddress     string `toml:"web_address"`
	ElectronicMail string `toml:"electronic_mail"`
	CnoCnae        string `toml:"cno_cnae"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	TaxNumber     string
	CorporateName string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.TaxNumber != "" {
		c.TaxNumber = overlay.TaxNumber
	}
	if overlay.CorporateName != "" {
		c.CorporateName = overlay.CorporateName
	}
	if overlay.TradeName != "" {
		c.TradeName = overlay.TradeName
	}
	c.Registration.merge(&overlay.Registration)
	c.Address.merge(&overlay.Address)
	c.Contact.merge(&overlay.Contact)
}

func (c *Config) loadDefaults() {
	if c.TradeName == "" {
		c.TradeName = c.CorporateName
	}
	if c.Address.CountryCode == "" {
		c.Address.CountryCode = "ESP"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.TaxNumber != "" {
		if v := os.Getenv(env.TaxNumber); v != "" {
			c.TaxNumber = v
		}
	}
	if env.CorporateName != "" {
		if v := os.Getenv(env.CorporateName); v != "" {
			c.CorporateName = v
		}
	}
}

func (c *Config) validate() error {
	if c.TaxNumber == "" {
		return fmt.Errorf("tax_number required")
	}
	if c.CorporateName == "" {
		return fmt.Errorf("corporate_name required")
	}
	return nil
}

func (r *RegistrationConfig) merge(overlay *RegistrationConfig) {
	if overlay.Book != "" {
		r.Book = overlay.Book
	}
	if overlay.Folio != "" {
		r.Folio = overlay.Folio
	}
	if overlay.Section != "" {
		r.Section = overlay.Section
	}
	if overlay.Sheet != "" {
		r.Sheet = overlay.Sheet
	}
	if overlay.Volume != "" {
		r.Volume = overlay.Volume
	}
	if overlay.Location != "" {
		r.Location = overlay.Location
	}
}

func (a *AddressConfig) merge(overlay *AddressConfig) {
	if overlay.Address != "" {
		a.Address = overlay.Address
	}
	if overlay.PostCode != "" {
		a.PostCode = overlay.PostCode
	}
	if overlay.Town != "" {
		a.Town = overlay.Town
	}
	if overlay.Province != "" {
		a.Province = overlay.Province
	}
	if overlay.CountryCode != "" {
		a.CountryCode = overlay.CountryCode
	}
}

func (c *ContactConfig) merge(overlay *ContactConfig) {
	if overlay.Telephone != "" {
		c.Telephone = overlay.Telephone
	}
	if overlay.TeleFax != "" {
		c.TeleFax = overlay.TeleFax
	}
	if overlay.WebAddress != "" {
		c.WebAddress = overlay.WebAddress
	}
	if overlay.ElectronicMail != "" {
		c.ElectronicMail = overlay.ElectronicMail
	}
	if overlay.CnoCnae != "" {
		c.CnoCnae = overlay.CnoCnae
	}
}
