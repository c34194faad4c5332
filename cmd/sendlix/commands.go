package main

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sendlix/sendlix-go/pkg/email"
	"github.com/sendlix/sendlix-go/pkg/eml"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
	"github.com/sendlix/sendlix-go/pkg/group"
)

type sendOutput struct {
	MessageIDs []string `yaml:"message_ids"`
	EmailsLeft int64    `yaml:"emails_left,omitempty"`
}

type groupSendOutput struct {
	EmailsLeft int64 `yaml:"emails_left"`
}

type updateOutput struct {
	Success bool `yaml:"success"`
}

type checkOutput struct {
	Exists bool `yaml:"exists"`
}

func bodyFlags(fs *pflag.FlagSet) {
	fs.String("from", "", "sender, either addr@example.com or \"Name <addr@example.com>\"")
	fs.String("subject", "", "subject line")
	fs.String("html", "", "HTML body")
	fs.String("html-file", "", "read the HTML body from a file")
	fs.String("text", "", "plain text body")
	fs.String("text-file", "", "read the text body from a file")
	fs.Bool("tracking", false, "enable open and click tracking (HTML only)")
	fs.String("category", "", "category used for reporting")
}

var sendCommand = command{
	usage: "send one email",
	flags: func(fs *pflag.FlagSet) {
		bodyFlags(fs)
		fs.StringArray("to", nil, "recipient, repeatable")
		fs.StringArray("cc", nil, "carbon copy recipient, repeatable")
		fs.StringArray("bcc", nil, "blind carbon copy recipient, repeatable")
		fs.String("reply-to", "", "reply-to address")
		fs.StringToString("sub", nil, "template substitution key=value, repeatable")
		fs.StringArray("attach", nil, "attachment as url[,filename[,content-type]], repeatable")
		fs.String("send-at", "", "schedule delivery at an RFC 3339 time")
	},
	run: func(ctx context.Context, e *env) (any, error) {
		html, text, err := bodies(e.flags)
		if err != nil {
			return nil, err
		}

		m := email.Mail{
			From:     parseAddress(mustString(e.flags, "from")),
			To:       parseAddresses(mustArray(e.flags, "to")),
			Cc:       parseAddresses(mustArray(e.flags, "cc")),
			Bcc:      parseAddresses(mustArray(e.flags, "bcc")),
			Subject:  mustString(e.flags, "subject"),
			HTML:     html,
			Text:     text,
			Tracking: mustBool(e.flags, "tracking"),
		}
		if replyTo := mustString(e.flags, "reply-to"); replyTo != "" {
			addr := parseAddress(replyTo)
			m.ReplyTo = &addr
		}
		if subs, _ := e.flags.GetStringToString("sub"); len(subs) > 0 {
			m.Substitutions = subs
			e.logger.Debug("using substitutions", "keys", keyValues(subs))
		}

		opts, err := sendOptions(e.flags)
		if err != nil {
			return nil, err
		}

		c, err := e.emailClient()
		if err != nil {
			return nil, err
		}
		defer c.Close()

		res, err := c.Send(ctx, m, opts...)
		if err != nil {
			return nil, err
		}
		return sendOutput{MessageIDs: res.MessageIDs, EmailsLeft: res.EmailsLeft}, nil
	},
}

var sendEMLCommand = command{
	usage: "send a raw RFC 5322 message",
	flags: func(fs *pflag.FlagSet) {
		fs.String("file", "", "message file, s3://bucket/key, or - for stdin")
		fs.String("category", "", "category used for reporting")
		fs.StringArray("attach", nil, "attachment as url[,filename[,content-type]], repeatable")
		fs.String("send-at", "", "schedule delivery at an RFC 3339 time")
	},
	run: func(ctx context.Context, e *env) (any, error) {
		src, err := e.emlSource(ctx, mustString(e.flags, "file"))
		if err != nil {
			return nil, err
		}

		opts, err := sendOptions(e.flags)
		if err != nil {
			return nil, err
		}

		c, err := e.emailClient()
		if err != nil {
			return nil, err
		}
		defer c.Close()

		res, err := c.SendEML(ctx, src, opts...)
		if err != nil {
			return nil, err
		}
		return sendOutput{MessageIDs: res.MessageIDs, EmailsLeft: res.EmailsLeft}, nil
	},
}

var sendGroupCommand = command{
	usage: "send one email to every member of a group",
	flags: func(fs *pflag.FlagSet) {
		bodyFlags(fs)
		fs.String("group", "", "group id")
	},
	run: func(ctx context.Context, e *env) (any, error) {
		html, text, err := bodies(e.flags)
		if err != nil {
			return nil, err
		}

		c, err := e.emailClient()
		if err != nil {
			return nil, err
		}
		defer c.Close()

		left, err := c.SendGroup(ctx, email.GroupMail{
			From:     parseAddress(mustString(e.flags, "from")),
			GroupID:  mustString(e.flags, "group"),
			Subject:  mustString(e.flags, "subject"),
			HTML:     html,
			Text:     text,
			Tracking: mustBool(e.flags, "tracking"),
			Category: mustString(e.flags, "category"),
		})
		if err != nil {
			return nil, err
		}
		return groupSendOutput{EmailsLeft: left}, nil
	},
}

var groupAddCommand = command{
	usage: "add recipients to a group",
	flags: func(fs *pflag.FlagSet) {
		fs.String("group", "", "group id")
		fs.StringArray("email", nil, "recipient, repeatable")
		fs.String("recipients", "", "YAML file listing recipients")
		fs.StringToString("sub", nil, "substitution shared by all recipients, key=value")
		fs.String("on-failure", "default", "default, abort or skip")
	},
	run: func(ctx context.Context, e *env) (any, error) {
		var recipients []group.Recipient
		for _, addr := range parseAddresses(mustArray(e.flags, "email")) {
			recipients = append(recipients, group.Recipient{Address: addr})
		}
		if path := mustString(e.flags, "recipients"); path != "" {
			fromFile, err := loadRecipients(path)
			if err != nil {
				return nil, err
			}
			recipients = append(recipients, fromFile...)
		}

		onFailure, err := group.ParseFailureHandling(mustString(e.flags, "on-failure"))
		if err != nil {
			return nil, err
		}
		opts := []group.InsertOption{group.WithFailureHandling(onFailure)}
		if subs, _ := e.flags.GetStringToString("sub"); len(subs) > 0 {
			opts = append(opts, group.WithSubstitutions(subs))
		}

		c, err := e.groupClient()
		if err != nil {
			return nil, err
		}
		defer c.Close()

		ok, err := c.Insert(ctx, mustString(e.flags, "group"), recipients, opts...)
		if err != nil {
			return nil, err
		}
		return updateOutput{Success: ok}, nil
	},
}

var groupRemoveCommand = command{
	usage: "remove an address from a group",
	flags: memberFlags,
	run: func(ctx context.Context, e *env) (any, error) {
		c, err := e.groupClient()
		if err != nil {
			return nil, err
		}
		defer c.Close()

		ok, err := c.Remove(ctx, mustString(e.flags, "group"), mustString(e.flags, "email"))
		if err != nil {
			return nil, err
		}
		return updateOutput{Success: ok}, nil
	},
}

var groupCheckCommand = command{
	usage: "check whether an address is in a group",
	flags: memberFlags,
	run: func(ctx context.Context, e *env) (any, error) {
		c, err := e.groupClient()
		if err != nil {
			return nil, err
		}
		defer c.Close()

		exists, err := c.Contains(ctx, mustString(e.flags, "group"), mustString(e.flags, "email"))
		if err != nil {
			return nil, err
		}
		return checkOutput{Exists: exists}, nil
	},
}

func memberFlags(fs *pflag.FlagSet) {
	fs.String("group", "", "group id")
	fs.String("email", "", "member address")
}

func (e *env) emailClient() (*email.Client, error) {
	version, err := email.ParseSchemaVersion(e.cfg.SchemaVersion)
	if err != nil {
		return nil, err
	}
	opts := []email.Option{
		email.WithTarget(e.cfg.Target),
		email.WithLogger(e.logger),
		email.WithSchemaVersion(version),
		email.WithDialOptions(e.dialOptions...),
	}
	if e.cfg.Insecure {
		opts = append(opts, email.WithInsecure())
	} else if e.tlsConfig != nil {
		opts = append(opts, email.WithTLSConfig(e.tlsConfig))
	}
	return email.New(e.auth, opts...)
}

func (e *env) groupClient() (*group.Client, error) {
	opts := []group.Option{
		group.WithTarget(e.cfg.Target),
		group.WithLogger(e.logger),
		group.WithDialOptions(e.dialOptions...),
	}
	if e.cfg.Insecure {
		opts = append(opts, group.WithInsecure())
	} else if e.tlsConfig != nil {
		opts = append(opts, group.WithTLSConfig(e.tlsConfig))
	}
	return group.New(e.auth, opts...)
}

func (e *env) emlSource(ctx context.Context, ref string) (eml.Source, error) {
	switch {
	case ref == "-":
		return eml.FromReader(e.stdin), nil
	case eml.IsS3(ref):
		api, err := e.newS3(ctx, e.cfg)
		if err != nil {
			return nil, err
		}
		return eml.Parse(ref, api)
	default:
		return eml.Parse(ref, nil)
	}
}

// bodies resolves --html/--html-file and --text/--text-file.
func bodies(fs *pflag.FlagSet) (html, text string, err error) {
	if html, err = inlineOrFile(fs, "html"); err != nil {
		return "", "", err
	}
	if text, err = inlineOrFile(fs, "text"); err != nil {
		return "", "", err
	}
	return html, text, nil
}

func inlineOrFile(fs *pflag.FlagSet, name string) (string, error) {
	inline := mustString(fs, name)
	path := mustString(fs, name+"-file")
	switch {
	case inline != "" && path != "":
		return "", fmt.Errorf("%w: --%s and --%s-file are mutually exclusive", sdkerrors.ErrInvalidFormat, name, name)
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s body: %w", name, err)
		}
		return string(b), nil
	default:
		return inline, nil
	}
}

func sendOptions(fs *pflag.FlagSet) ([]email.SendOption, error) {
	var opts []email.SendOption
	if category := mustString(fs, "category"); category != "" {
		opts = append(opts, email.WithCategory(category))
	}
	if at := mustString(fs, "send-at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return nil, fmt.Errorf("%w: --send-at: %v", sdkerrors.ErrInvalidFormat, err)
		}
		opts = append(opts, email.WithSendAt(t))
	}
	for _, arg := range mustArray(fs, "attach") {
		a, err := parseAttachment(arg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, email.WithAttachments(a))
	}
	return opts, nil
}

func parseAttachment(arg string) (email.Attachment, error) {
	parts := strings.SplitN(arg, ",", 3)
	a := email.Attachment{ContentURL: strings.TrimSpace(parts[0])}
	if a.ContentURL == "" {
		return email.Attachment{}, fmt.Errorf("%w: attachment %q has no URL", sdkerrors.ErrInvalidFormat, arg)
	}
	if len(parts) > 1 {
		a.Filename = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		a.ContentType = strings.TrimSpace(parts[2])
	}
	if a.Filename == "" {
		a.Filename = a.ContentURL[strings.LastIndex(a.ContentURL, "/")+1:]
	}
	return a, nil
}

// parseAddress accepts "addr" or "Name <addr>". Anything unparseable is
// passed through so the SDK reports it as an invalid address.
func parseAddress(s string) email.Address {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return email.Addr(s)
	}
	parsed, err := mail.ParseAddress(s)
	if err != nil {
		return email.Addr(s)
	}
	return email.Address{Email: parsed.Address, Name: parsed.Name}
}

func parseAddresses(list []string) []email.Address {
	if len(list) == 0 {
		return nil
	}
	out := make([]email.Address, len(list))
	for i, s := range list {
		out[i] = parseAddress(s)
	}
	return out
}

func mustString(fs *pflag.FlagSet, name string) string {
	v, _ := fs.GetString(name)
	return v
}

func mustArray(fs *pflag.FlagSet, name string) []string {
	v, _ := fs.GetStringArray(name)
	return v
}

func mustBool(fs *pflag.FlagSet, name string) bool {
	v, _ := fs.GetBool(name)
	return v
}
