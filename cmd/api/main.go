package main

// @title n8n Chat Relay APIs
// @version 1.0
// @description Relays chat conversations to n8n workflow webhooks.

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http
import (
	_ "n8n-chat-relay/docs"
	protocol "n8n-chat-relay/protocal"

	"github.com/sirupsen/logrus"
)

func main() {
	err := protocol.ServeHTTP()
	if err != nil {
		logrus.Println(err)
	}
}
