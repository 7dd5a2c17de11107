// tokentool 签发和查看服务端接受的 HS256 令牌, 与服务端读取同一份 config/config.yaml.
// 用法:
//
//	tokentool -mode sign -user 5f0c... -email a@example.com
//	echo "$TOKEN" | tokentool -mode inspect
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

func main() {
	mode := flag.String("mode", "sign", "Mode: 'sign' or 'inspect'")
	userID := flag.String("user", "", "User ID to sign for (default: a new UUID)")
	email := flag.String("email", "", "Email claim")
	firstName := flag.String("first", "", "First name claim")
	lastName := flag.String("last", "", "Last name claim")
	picture := flag.String("picture", "", "Profile image URL claim")
	flag.Parse()

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	switch *mode {
	case "sign":
		id := *userID
		if id == "" {
			id = uuid.NewString()
		}
		token, err := utils.GenerateToken(id, utils.Profile{
			Email:           *email,
			FirstName:       *firstName,
			LastName:        *lastName,
			ProfileImageURL: *picture,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
	case "inspect":
		inspect()
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s. Use 'sign' or 'inspect'.\n", *mode)
		os.Exit(1)
	}
}

// 从标准输入读取令牌, 校验后输出其中的声明
func inspect() {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
		os.Exit(1)
	}

	claims, err := utils.ParseToken(strings.TrimSpace(string(input)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid token: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding claims: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
