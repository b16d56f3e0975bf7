// notectl is a terminal client for collab-notes-server. Durable changes go
// through the REST API; edit and watch keep a websocket session open for
// presence and live broadcasts, persisting content with a debounced save.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"collab-notes-server/internal/domain"
	ws "collab-notes-server/internal/websocket"
	"collab-notes-server/pkg/client"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	username  string
	saveDelay time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "notectl",
		Short:         "Client for the collaborative notes server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("NOTES_SERVER", "http://localhost:5000"), "server base URL")
	root.PersistentFlags().StringVarP(&username, "user", "u", envOr("NOTES_USER", ""), "username (identity is self-asserted)")
	root.PersistentFlags().DurationVar(&saveDelay, "save-delay", 2*time.Second, "debounce interval for persisting edits")

	root.AddCommand(loginCmd(), usersCmd(), listCmd(), createCmd(), showCmd(), editCmd(), rmCmd(), watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// login performs login-or-register and returns a ready client plus identity.
func login(ctx context.Context) (*client.Client, *domain.UserRef, error) {
	if username == "" {
		return nil, nil, fmt.Errorf("--user is required")
	}

	c := client.New(serverURL)
	resp, err := c.Login(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	return c, resp.User, nil
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in (creates the user on first sight) and print the identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, user, err := login(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("user %s (%s)\ntoken %s\n", user.Username, user.ID, c.Token())
			return nil
		},
	}
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverURL)
			users, err := c.Users(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%s\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	var tag, search, sortOrder string
	var mine bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := &domain.ListNotesQuery{Tag: tag, Search: search, Sort: sortOrder}

			c := client.New(serverURL)
			if mine {
				var user *domain.UserRef
				var err error
				c, user, err = login(cmd.Context())
				if err != nil {
					return err
				}
				query.UserID = user.ID
			}

			notes, err := c.Notes(cmd.Context(), query)
			if err != nil {
				return err
			}
			for _, n := range notes {
				fmt.Printf("%s\t%s\t[%s]\tby %s\n", n.ID, n.Title, strings.Join(n.Tags, ","), n.Creator.Username)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&search, "search", "", "substring match on title or content")
	cmd.Flags().StringVar(&sortOrder, "sort", "", "newest, oldest or updated")
	cmd.Flags().BoolVar(&mine, "mine", false, "only notes you created or edited")
	return cmd
}

func createCmd() *cobra.Command {
	var content string
	var tags []string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, user, err := login(cmd.Context())
			if err != nil {
				return err
			}

			note, err := c.CreateNote(cmd.Context(), &domain.CreateNoteRequest{
				Title:   args[0],
				Content: content,
				Tags:    tags,
				UserID:  user.ID,
			})
			if err != nil {
				return err
			}
			fmt.Println(note.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "initial content")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "tags")
	return cmd
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <note-id>",
		Short: "Print a note as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverURL)
			note, err := c.Note(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(note)
		},
	}
}

func editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Stream stdin into a note: each line broadcasts live and saves debounced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			noteID := args[0]

			c, user, err := login(cmd.Context())
			if err != nil {
				return err
			}

			note, err := c.Note(cmd.Context(), noteID)
			if err != nil {
				return err
			}

			session, err := client.Dial(serverURL, c.Token(), user.ID, user.Username)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.StartEditing(noteID); err != nil {
				return err
			}
			defer session.StopEditing(noteID)

			debouncer := client.NewDebouncer(saveDelay)
			defer debouncer.Flush()

			content := note.Content
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if content != "" {
					content += "\n"
				}
				content += scanner.Text()

				if err := session.SendEdit(noteID, content, nil); err != nil {
					return err
				}

				snapshot := content
				debouncer.Trigger(func() {
					_, err := c.UpdateNote(context.Background(), noteID, &domain.UpdateNoteRequest{
						Content: &snapshot,
						UserID:  user.ID,
					})
					if err != nil {
						fmt.Fprintln(os.Stderr, "save failed:", err)
					}
				})
			}
			return scanner.Err()
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <note-id>",
		Short: "Delete a note (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, user, err := login(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.DeleteNote(cmd.Context(), args[0], user.ID); err != nil {
				return err
			}
			fmt.Println("deleted")
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [note-id...]",
		Short: "Print presence and edit events; note ids subscribe to those rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, user, err := login(cmd.Context())
			if err != nil {
				return err
			}

			session, err := client.Dial(serverURL, c.Token(), user.ID, user.Username)
			if err != nil {
				return err
			}
			defer session.Close()

			for _, noteID := range args {
				if err := session.StartEditing(noteID); err != nil {
					return err
				}
			}

			for msg := range session.Events {
				printEvent(msg)
			}
			return nil
		},
	}
}

func printEvent(msg *ws.Message) {
	switch msg.Type {
	case ws.TypeActiveUsers:
		var p ws.ActiveUsersPayload
		if msg.UnmarshalPayload(&p) != nil {
			return
		}
		names := make([]string, 0, len(p.Users))
		for _, u := range p.Users {
			names = append(names, u.Username)
		}
		fmt.Printf("online: %s\n", strings.Join(names, ", "))

	case ws.TypeNoteEditors:
		var p ws.NoteEditorsPayload
		if msg.UnmarshalPayload(&p) != nil {
			return
		}
		names := make([]string, 0, len(p.Editors))
		for _, e := range p.Editors {
			names = append(names, e.Username)
		}
		fmt.Printf("note %s editors: %s\n", p.NoteID, strings.Join(names, ", "))

	case ws.TypeNoteUpdated:
		var p ws.NoteUpdatedPayload
		if msg.UnmarshalPayload(&p) != nil {
			return
		}
		fmt.Printf("note %s updated by %s (%d bytes)\n", p.NoteID, p.UserID, len(p.Content))

	case ws.TypeCursorMoved:
		var p ws.CursorMovedPayload
		if msg.UnmarshalPayload(&p) != nil {
			return
		}
		fmt.Printf("note %s cursor %s @ %d\n", p.NoteID, p.UserID, p.Position)

	default:
		fmt.Printf("event %s\n", msg.Type)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
