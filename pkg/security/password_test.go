package security_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/angelmondragon/devtail-backend/pkg/security"
)

var cheap = config.PasswordConfig{
	ArgonMemoryKB:    8 * 1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("abcd!234", cheap)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)

	ok, err := security.VerifyPassword("abcd!234", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = security.VerifyPassword("abcd!235", hash)
	require.NoError(t, err)
	require.False(t, ok)

	again, err := security.HashPassword("abcd!234", cheap)
	require.NoError(t, err)
	require.NotEqual(t, hash, again, "salt must differ per hash")
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", cheap)
	require.Error(t, err)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=0,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
	} {
		_, err := security.VerifyPassword("x", encoded)
		require.ErrorIs(t, err, security.ErrInvalidHash, encoded)
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := security.HashPassword("abcd!234", cheap)
	require.NoError(t, err)
	require.False(t, security.NeedsRehash(hash, cheap))

	stronger := cheap
	stronger.ArgonTime = 2
	require.True(t, security.NeedsRehash(hash, stronger))
	require.True(t, security.NeedsRehash("garbage", cheap))
}

func TestParamsFromClamps(t *testing.T) {
	p := security.ParamsFrom(config.PasswordConfig{ArgonParallelism: 1000, ArgonKeyLen: 4})
	require.Equal(t, uint8(255), p.Threads)
	require.Equal(t, uint32(16), p.KeyLen)
	require.Equal(t, uint32(1), p.Time)
	require.Equal(t, uint32(8), p.Memory)
}

func TestCredentialFingerprintChangesWithState(t *testing.T) {
	base := security.CredentialFingerprint("hash-a", nil)
	require.Equal(t, base, security.CredentialFingerprint("hash-a", nil))
	require.NotEqual(t, base, security.CredentialFingerprint("hash-b", nil))

	login := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NotEqual(t, base, security.CredentialFingerprint("hash-a", &login))
	require.Len(t, base, 32)
}
