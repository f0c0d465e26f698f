package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chat-hub/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// viewer dumps the store as terminal tables while the server keeps running.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (user:, chat:, msg:, request:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.Green.Printf("Scanning %q under %s\n", *prefix, *dbPath)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Timestamp", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			// Secondary keys hold plain ids, not JSON documents.
			if strings.HasPrefix(rawKey, "username:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				rowType, at, detail := describe(rawKey, v)
				table.Append([]string{rawKey, rowType, at, detail})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// describe shapes one row from a raw record, keyed on the key prefix.
func describe(key string, value []byte) (string, string, string) {
	switch {
	case strings.HasPrefix(key, "user:"):
		var user repositories.User
		if err := json.Unmarshal(value, &user); err != nil {
			return "USER", "", "Error: unmarshal failed"
		}
		return "USER", user.CreatedAt.Format("15:04:05"),
			fmt.Sprintf("%s (@%s)", user.Name, user.Username)
	case strings.HasPrefix(key, "chat:"):
		var chat repositories.Chat
		if err := json.Unmarshal(value, &chat); err != nil {
			return "CHAT", "", "Error: unmarshal failed"
		}
		kind := "DIRECT"
		if chat.GroupChat {
			kind = "GROUP"
		}
		return kind, chat.CreatedAt.Format("15:04:05"),
			fmt.Sprintf("%s (%d members)", chat.Name, len(chat.Members))
	case strings.HasPrefix(key, "msg:"):
		var message repositories.DiskMessage
		if err := json.Unmarshal(value, &message); err != nil {
			return "MESSAGE", "", "Error: unmarshal failed"
		}
		detail := message.Content
		if len(message.Attachments) > 0 {
			detail = fmt.Sprintf("%s [%d attachments]", detail, len(message.Attachments))
		}
		return "MESSAGE", message.At.Format("15:04:05"), detail
	case strings.HasPrefix(key, "request:"):
		var request repositories.FriendRequest
		if err := json.Unmarshal(value, &request); err != nil {
			return "REQUEST", "", "Error: unmarshal failed"
		}
		return "REQUEST", request.CreatedAt.Format("15:04:05"),
			fmt.Sprintf("%s -> %s", request.Sender, request.Receiver)
	default:
		return "RAW", time.Now().Format("15:04:05"), string(value)
	}
}

func openDB(path string) (*badger.DB, error) {
	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
