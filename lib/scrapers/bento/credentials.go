package bento

import (
	"fmt"
	"os"
)

// company code the ordering site assigns to our office, override with
// BENTO_COMPANY_CD when ordering for a different company
const DefaultCompanyCode = "000748"

var MissingCredentials = fmt.Errorf("ordering requires credentials, set BENTO_USER_CD and BENTO_PASSWORD")

// Credentials identify one account on the ordering site. The password
// is never logged and never persisted, only the session cookies are.
type Credentials struct {
	CompanyCode string
	UserCode    string
	Password    string
}

func CredentialsFromEnv() (Credentials, error) {
	companyCode := os.Getenv("BENTO_COMPANY_CD")
	if companyCode == "" {
		companyCode = DefaultCompanyCode
	}
	creds := Credentials{
		CompanyCode: companyCode,
		UserCode:    os.Getenv("BENTO_USER_CD"),
		Password:    os.Getenv("BENTO_PASSWORD"),
	}
	if creds.UserCode == "" || creds.Password == "" {
		return Credentials{}, MissingCredentials
	}
	return creds, nil
}
