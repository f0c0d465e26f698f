package main

import (
	"fmt"
	"log"
	"log/slog"
	"time"

	"chat-hub/auth"
	"chat-hub/repositories"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	BlugeFilepath  string `envconfig:"BLUGE_FILEPATH" required:"true"`
	// SEED_PASSWORD is shared by every generated account.
	Password string `envconfig:"SEED_PASSWORD" default:"Chat-hub-2026!"`
	Users    int    `envconfig:"SEED_USERS" default:"6"`
	Messages int    `envconfig:"SEED_MESSAGES" default:"40"`
}

var names = []string{"Alice", "Bob", "Charlie", "Diane", "Erwan", "Fatou", "Gaspard", "Hana"}

var samples = []string{
	"Hello there!",
	"Did you see the game last night?",
	"I will be late, sorry",
	"Let's meet at noon",
	"That was hilarious",
	"Can you send me the file?",
	"On my way",
	"Good morning everyone",
}

// seed fills the store with accounts, a direct chat per neighbour pair, one
// group with everybody, and a spread of messages over the last week.
func main() {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		log.Fatalf("Failed to open bluge writer: %v", err)
	}
	defer blugeWriter.Close()

	logger := slog.Default()
	users := repositories.NewUserRepository(db, blugeWriter)
	chats := repositories.NewChatRepository(db)
	messages := repositories.NewMessageRepository(db, logger, nil)

	hash, err := auth.HashPassword(config.Password)
	if err != nil {
		log.Fatalf("Hashing failed: %v", err)
	}

	count := min(config.Users, len(names))
	userIDs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id, err := users.CreateUser(repositories.User{
			Name:         names[i],
			Username:     fmt.Sprintf("%s%d", lo.SnakeCase(names[i]), i+1),
			Bio:          fmt.Sprintf("Hi, I am %s", names[i]),
			PasswordHash: hash,
		})
		if err != nil {
			log.Fatalf("User %s: %v", names[i], err)
		}
		userIDs = append(userIDs, id)
		fmt.Printf("Created user %s (%s)\n", names[i], id)
	}

	chatIDs := make([]string, 0, count)
	for i := 0; i+1 < count; i++ {
		id, err := chats.CreateChat(repositories.Chat{
			Name:      names[i] + "-" + names[i+1],
			GroupChat: false,
			Creator:   userIDs[i],
			Members:   []string{userIDs[i], userIDs[i+1]},
		})
		if err != nil {
			log.Fatalf("Chat: %v", err)
		}
		chatIDs = append(chatIDs, id)
	}

	groupID, err := chats.CreateChat(repositories.Chat{
		Name:      "Everyone",
		GroupChat: true,
		Creator:   userIDs[0],
		Members:   userIDs,
	})
	if err != nil {
		log.Fatalf("Group: %v", err)
	}
	chatIDs = append(chatIDs, groupID)

	now := time.Now().UTC()
	for i := 0; i < config.Messages; i++ {
		chatID := chatIDs[i%len(chatIDs)]
		chat, err := chats.GetChat(chatID)
		if err != nil {
			log.Fatalf("Chat lookup: %v", err)
		}
		err = messages.StoreMessage(repositories.DiskMessage{
			Chat:    chatID,
			Sender:  chat.Members[i%len(chat.Members)],
			Content: samples[i%len(samples)],
			At:      now.Add(-time.Duration(i) * 3 * time.Hour),
		})
		if err != nil {
			log.Fatalf("Message: %v", err)
		}
	}

	fmt.Printf("Seeded %d users, %d chats, %d messages\n", count, len(chatIDs), config.Messages)
}
