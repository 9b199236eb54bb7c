package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/inventario-traslados/pkg/jwt"
)

const testSecret = "test-secret-key-for-unit-tests"

func testSubject() pkgjwt.Subject {
	return pkgjwt.Subject{
		UserID:      "00000000-0000-0000-0000-000000000001",
		CompanyID:   "00000000-0000-0000-0000-000000000002",
		Role:        "bodeguero",
		Permissions: []string{"MANAGE_WAREHOUSE", "VIEW_REQUESTS"},
	}
}

func TestJWT_GenerateAndParse_ConPermisos(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testSubject(), "test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)

	assert.Equal(t, testSubject().UserID, claims.UserID)
	assert.Equal(t, testSubject().CompanyID, claims.CompanyID)
	assert.Equal(t, "bodeguero", claims.Role)
	assert.Equal(t, []string{"MANAGE_WAREHOUSE", "VIEW_REQUESTS"}, claims.Permissions)
	assert.Equal(t, "test", claims.Issuer)
}

func TestJWT_TokenExpirado_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testSubject(), "test", -1)
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestJWT_SecretIncorrecto_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, testSubject(), "test", 60)
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err, "secret incorrecto debe invalidar el token")
}

func TestJWT_SecretVacio_RetornaError(t *testing.T) {
	_, err := pkgjwt.Generate("", testSubject(), "test", 60)
	assert.Error(t, err)
}
