// Command smsauthctl is an operator tool for inspecting and resetting the
// auth database. Not for use against a live server: it opens the SQLite
// file directly.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/digisken/smsauth/internal/database"
	"github.com/digisken/smsauth/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	dbPath := os.Getenv("SMSAUTH_DB_PATH")
	if dbPath == "" {
		dbPath = "smsauth.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	switch os.Args[1] {
	case "dump":
		err = dump(db, dbPath)
	case "clear":
		err = clear(db)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: smsauthctl <dump|clear>")
	fmt.Fprintln(os.Stderr, "  dump   print users, OTP records, and sessions")
	fmt.Fprintln(os.Stderr, "  clear  delete all rows (for test resets)")
	fmt.Fprintln(os.Stderr, "database path comes from SMSAUTH_DB_PATH (default smsauth.db)")
}

func dump(db *sql.DB, dbPath string) error {
	users, err := store.NewUserStore(db).List()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	fmt.Println("=== USERS ===")
	for _, u := range users {
		fmt.Printf("ID: %d, Phone: %s, 2FA: %t, Created: %s, Last Login: %s\n",
			u.ID, u.PhoneNumber, u.TwoFAEnabled, fmtTime(&u.CreatedAt), fmtTime(u.LastLogin))
	}

	otps, err := store.NewOtpStore(db).List()
	if err != nil {
		return fmt.Errorf("list otp records: %w", err)
	}
	fmt.Println("\n=== OTP RECORDS ===")
	for _, o := range otps {
		fmt.Printf("Phone: %s, Code: %s, Expires: %s, Attempts: %d, Locked Until: %s\n",
			o.PhoneNumber, o.OtpCode, fmtTime(o.ExpiresAt), o.AttemptCount, fmtTime(o.LockedUntil))
	}

	sessions, err := store.NewSessionStore(db).List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	fmt.Println("\n=== SESSIONS ===")
	for _, s := range sessions {
		fmt.Printf("ID: %d, Phone: %s, Expires: %s, IP: %s\n",
			s.ID, s.PhoneNumber, fmtTime(&s.ExpiresAt), s.IPAddress)
	}

	fmt.Printf("\nDatabase file: %s\n", dbPath)
	return nil
}

func clear(db *sql.DB) error {
	for _, table := range []string{"sessions", "otp_codes", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	fmt.Println("All users, OTP records, and sessions cleared")
	return nil
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}
