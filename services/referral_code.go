package services

import (
	"crypto/rand"
	"math/big"
)

// Referral code alphabet skips 0/O and 1/I so codes survive being read out
// loud at the door.
const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const referralCodeLength = 8

// GenerateReferralCode mints a short uppercase token. Uniqueness is enforced
// by the DB index on user_profiles.referral_code; collisions at this length
// are not worth a retry loop here.
func GenerateReferralCode() string {
	buf := make([]byte, referralCodeLength)
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		buf[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(buf)
}
