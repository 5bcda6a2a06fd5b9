package credential

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

var ErrNoSessData = fmt.Errorf("this operation requires SESSDATA in the credential")
var ErrNoBiliJct = fmt.Errorf("this operation requires bili_jct in the credential")

// Credential is the cookie bundle identifying a logged-in account.
// The zero value is a valid anonymous credential. All fields are
// optional, endpoints differ in which ones they demand.
type Credential struct {
	SessData    string
	BiliJct     string
	Buvid3      string
	DedeUserID  string
	AcTimeValue string
}

const (
	cookieSessData    = "SESSDATA"
	cookieBiliJct     = "bili_jct"
	cookieBuvid3      = "buvid3"
	cookieDedeUserID  = "DedeUserID"
	cookieAcTimeValue = "ac_time_value"
)

// Cookies returns the cookie name -> value mapping for this
// credential. Unset fields are omitted, so an anonymous credential
// yields an empty map. Safe to call on a nil receiver.
func (c *Credential) Cookies() map[string]string {
	cookies := map[string]string{}
	if c == nil {
		return cookies
	}
	if c.SessData != "" {
		cookies[cookieSessData] = c.SessData
	}
	if c.BiliJct != "" {
		cookies[cookieBiliJct] = c.BiliJct
	}
	if c.Buvid3 != "" {
		cookies[cookieBuvid3] = c.Buvid3
	}
	if c.DedeUserID != "" {
		cookies[cookieDedeUserID] = c.DedeUserID
	}
	if c.AcTimeValue != "" {
		cookies[cookieAcTimeValue] = c.AcTimeValue
	}
	return cookies
}

// FromCookies builds a credential from a cookie name -> value
// mapping, ignoring any unrelated cookies.
func FromCookies(cookies map[string]string) *Credential {
	return &Credential{
		SessData:    cookies[cookieSessData],
		BiliJct:     cookies[cookieBiliJct],
		Buvid3:      cookies[cookieBuvid3],
		DedeUserID:  cookies[cookieDedeUserID],
		AcTimeValue: cookies[cookieAcTimeValue],
	}
}

func (c *Credential) HasSessData() bool {
	return c != nil && c.SessData != ""
}

func (c *Credential) HasBiliJct() bool {
	return c != nil && c.BiliJct != ""
}

func (c *Credential) RequireSessData() error {
	if !c.HasSessData() {
		return ErrNoSessData
	}
	return nil
}

func (c *Credential) RequireBiliJct() error {
	if !c.HasBiliJct() {
		return ErrNoBiliJct
	}
	return nil
}

// GenerateBuvid3 fabricates a device fingerprint in the format the
// server hands out: grouped uppercase hex with an "infoc" suffix.
func GenerateBuvid3() (string, error) {
	raw := make([]byte, 19)
	_, err := rand.Read(raw)
	if err != nil {
		return "", err
	}
	hexstr := strings.ToUpper(hex.EncodeToString(raw))

	groups := []string{
		hexstr[0:8],
		hexstr[8:12],
		hexstr[12:16],
		hexstr[16:20],
		hexstr[20:37],
	}
	return strings.Join(groups, "-") + "infoc", nil
}
