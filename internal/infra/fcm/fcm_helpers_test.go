package fcm

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func testAccount(t *testing.T, tokenURI string) (*ServiceAccount, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return &ServiceAccount{
		Type:         "service_account",
		ProjectID:    "silah-test",
		PrivateKeyID: "kid-1",
		PrivateKey:   string(pemKey),
		ClientEmail:  "dispatcher@silah-test.iam.gserviceaccount.com",
		TokenURI:     tokenURI,
	}, key
}
