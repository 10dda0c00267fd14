package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/conteo-inventario/pkg/jwt"
)

func TestGenerateYParse(t *testing.T) {
	token, err := jwt.Generate("s3cr3t", "M1", "manager", "T01", "conteo", 5)
	require.NoError(t, err)

	userID, role, loc, err := jwt.Parse("s3cr3t", token)
	require.NoError(t, err)
	assert.Equal(t, "M1", userID)
	assert.Equal(t, "manager", role)
	assert.Equal(t, "T01", loc)
}

func TestParse_Rechazos(t *testing.T) {
	token, err := jwt.Generate("s3cr3t", "C1", "coordinator", "", "conteo", 5)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse("otro", token)
	assert.Error(t, err, "firma incorrecta")

	expired, err := jwt.Generate("s3cr3t", "C1", "coordinator", "", "conteo", -1)
	require.NoError(t, err)
	_, _, _, err = jwt.Parse("s3cr3t", expired)
	assert.Error(t, err, "expirado")

	_, _, _, err = jwt.Parse("", token)
	assert.Error(t, err)

	_, err = jwt.Generate("", "C1", "coordinator", "", "conteo", 5)
	assert.Error(t, err)
}
