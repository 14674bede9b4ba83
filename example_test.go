package goToken_test

import (
	"errors"
	"fmt"
	"time"

	goToken "github.com/MrEthical07/goToken"
	"github.com/MrEthical07/goToken/jwt"
)

func ExampleEncode() {
	signing, verification, err := jwt.NewHMACKey([]byte("secret"))
	if err != nil {
		panic(err)
	}

	token, err := goToken.Encode("superadmin", 300*time.Second, signing)
	if err != nil {
		panic(err)
	}

	who, err := goToken.Decode[string](token, verification)
	if err != nil {
		panic(err)
	}
	fmt.Println(who)
	// Output: superadmin
}

func ExampleVerify() {
	codec, err := goToken.New().
		WithHMACSecret([]byte("secret")).
		Build()
	if err != nil {
		panic(err)
	}
	defer codec.Close()

	type session struct {
		UserID string `json:"uid"`
	}

	token, err := goToken.IssueFor(codec, session{UserID: "u-1"}, time.Minute)
	if err != nil {
		panic(err)
	}

	s, err := goToken.Verify[session](codec, token)
	switch {
	case errors.Is(err, goToken.ErrTemporallyInvalid):
		fmt.Println("please log in again")
	case err != nil:
		fmt.Println("rejected")
	default:
		fmt.Println(s.UserID)
	}
	// Output: u-1
}
