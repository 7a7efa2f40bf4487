package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// DefaultUserPath is used by SaveUser when no path is given.
const DefaultUserPath = "./users/{user_id}.env"

const userHeader = "# -------- Below was added by the SxT SDK\n"

// User is the identity stored in a user .env file. The variable names match the ones
// read by configuration loading, so a saved file can be used as a .env directly.
type User struct {
	APIURL     string
	UserID     string
	PrivateKey string
	PublicKey  string
	JoinCode   string
	AppPrefix  string
}

// SaveUser writes u to path, after {user_id}, {date} and {time} replacement, and returns
// the path used.
func (s *Store) SaveUser(ctx context.Context, path string, u User) (string, error) {
	if path == "" {
		path = DefaultUserPath
	}
	path = s.ResolvePath(path, map[string]string{"user_id": u.UserID, "public_key": u.PublicKey})

	values := map[string]string{
		"API_URL":         u.APIURL,
		"USERID":          u.UserID,
		"USER_PUBLIC_KEY": u.PublicKey,
	}
	if u.JoinCode != "" {
		values["JOINCODE"] = u.JoinCode
	}
	if u.AppPrefix != "" {
		values["APP_PREFIX"] = u.AppPrefix
	}

	doc := &Document{}
	if err := s.putPrivateKey(ctx, doc, "USER_PRIVATE_KEY", u.PrivateKey); err != nil {
		return "", err
	}
	for _, name := range doc.Names() {
		values[name] = doc.Value(name)
	}

	content, err := godotenv.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode user file: %w", err)
	}
	if err := writeExclusive(path, []byte(userHeader+content+"\n")); err != nil {
		s.logger.Error("user file not saved", slog.String("path", path), slog.Any("error", err))
		return "", err
	}
	s.logger.Warn("the saved file contains private keys", slog.String("path", path))
	return path, nil
}

// LoadUser reads a user .env file.
func (s *Store) LoadUser(ctx context.Context, path string) (User, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return User{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return User{}, fmt.Errorf("%w: %s: %v", ErrMalformedFile, path, err)
	}

	doc := &Document{}
	for name, value := range values {
		doc.Set(name, value)
	}
	if err := doc.Require("USERID"); err != nil {
		return User{}, fmt.Errorf("%s: %w", path, err)
	}
	privateKey, err := s.privateKey(ctx, doc, "USER_PRIVATE_KEY")
	if err != nil {
		return User{}, fmt.Errorf("%s: %w", path, err)
	}

	return User{
		APIURL:     values["API_URL"],
		UserID:     values["USERID"],
		PrivateKey: privateKey,
		PublicKey:  values["USER_PUBLIC_KEY"],
		JoinCode:   values["JOINCODE"],
		AppPrefix:  values["APP_PREFIX"],
	}, nil
}
