package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"

	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
)

const requestTimeout = 2 * time.Minute

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "tide CLI"
	app.Usage = "Command line interface for the tided daemon"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "addr",
			Usage: "host:port of the daemon's websocket interface",
			Value: "localhost:9745",
		},
	}
	app.Commands = append(
		app.Commands,
		&status,
		&genseed,
		&createwallet,
		&unlockwallet,
		&lockwallet,
		&changepassword,
		&listaccounts,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

// response mirrors the daemon's envelope with the data kept raw so each
// command can decode or pretty-print it.
type response struct {
	Type    string           `json:"type"`
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data,omitempty"`
	Error   *ws.ErrorPayload `json:"error,omitempty"`
	ID      string           `json:"id,omitempty"`
}

// request opens a connection, sends one envelope and waits for its reply,
// skipping any push message arriving in between.
func request(ctx *cli.Context, msgType string, data interface{}) (json.RawMessage, error) {
	url := fmt.Sprintf("ws://%s/ws", ctx.String("addr"))
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot reach the daemon at %s: %w", url, err)
	}
	defer conn.Close()

	var raw json.RawMessage
	if data != nil {
		if raw, err = json.Marshal(data); err != nil {
			return nil, err
		}
	}
	id := uuid.NewString()
	if err := conn.WriteJSON(&ws.Request{Type: msgType, Data: raw, ID: id}); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(requestTimeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		var res response
		if err := conn.ReadJSON(&res); err != nil {
			return nil, err
		}
		if res.ID != id {
			continue
		}
		if !res.Success {
			if res.Error != nil {
				return nil, errors.New(res.Error.Message)
			}
			return nil, errors.New("request failed")
		}
		return res.Data, nil
	}
}

func printRespJSON(data json.RawMessage) {
	if len(data) == 0 {
		return
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		fmt.Println(string(data))
		return
	}
	pretty, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(pretty))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[tide] %v\n", err)
	os.Exit(1)
}
