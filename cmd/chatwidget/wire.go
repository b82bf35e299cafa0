package main

import (
	"time"

	"github.com/go-go-golems/chatwidget/pkg/config"
	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/exchange"
	"github.com/go-go-golems/chatwidget/pkg/savehook"
	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// sqliteDSN expands a leading ~ in path and returns the expanded path with
// its SQLite DSN. Saving and browsing both go through it.
func sqliteDSN(path string) (string, string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", "", errors.Wrapf(err, "expand %s", path)
	}
	dsn, err := savehook.SQLiteDSNForFile(expanded)
	if err != nil {
		return "", "", err
	}
	return expanded, dsn, nil
}

// openSinks builds the configured save sinks plus any extra ones. It returns
// nil when nothing wants saved exchanges.
func openSinks(s config.SaveSettings, extra ...savehook.Sink) (savehook.Sink, error) {
	var sinks savehook.Multi
	closeAll := func() { _ = sinks.Close() }

	if s.SQLite != "" {
		path, dsn, err := sqliteDSN(s.SQLite)
		if err != nil {
			return nil, err
		}
		sink, err := savehook.NewSQLiteSink(dsn)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
		log.Info().Str("path", path).Msg("saving exchanges to sqlite")
	}
	if s.Redis.Addr != "" {
		sink, err := savehook.NewRedisStreamSink(s.Redis)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, sink)
		log.Info().Str("addr", s.Redis.Addr).Str("stream", s.Redis.Stream).Msg("publishing exchanges to redis")
	}
	for _, e := range extra {
		if e != nil {
			sinks = append(sinks, e)
		}
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

// widgetSession is a mounted session with the resources it holds.
type widgetSession struct {
	*session.Session
	owner      *conversation.Owner[conversation.Entry]
	dispatcher *savehook.Dispatcher
}

func (w *widgetSession) Close() error {
	if w.dispatcher == nil {
		return nil
	}
	return w.dispatcher.Close()
}

// newWidgetSession turns settings into a session talking to the configured
// endpoint. Extra sinks receive saved exchanges next to the configured ones.
func newWidgetSession(s config.Settings, extra ...savehook.Sink) (*widgetSession, error) {
	client, err := exchange.NewClient(s.APIEndpoint, s.APIKey, s.ChatbotID)
	if err != nil {
		return nil, err
	}
	return newWidgetSessionWithSender(s, client, extra...)
}

func newWidgetSessionWithSender(s config.Settings, sender exchange.Sender, extra ...savehook.Sink) (*widgetSession, error) {
	opts := []session.Option{
		session.WithUser(s.User),
		session.WithAvatars(s.UserAvatar, s.BotAvatar),
	}

	ws := &widgetSession{}
	switch s.Ownership {
	case session.OwnershipExternal:
		ws.owner = conversation.NewOwner[conversation.Entry]()
		opts = append(opts, session.WithOwner(ws.owner))
	default:
		if s.InitialMessages != "" {
			seed, err := conversation.LoadSeedFile(s.InitialMessages, time.Now())
			if err != nil {
				return nil, err
			}
			opts = append(opts, session.WithInitialMessages(seed))
		}
	}

	sink, err := openSinks(s.Save, extra...)
	if err != nil {
		return nil, err
	}
	if sink != nil {
		ws.dispatcher = savehook.NewDispatcher(sink)
		opts = append(opts, session.WithOnSave(ws.dispatcher.Func()))
	}

	sess, err := session.New(sender, opts...)
	if err != nil {
		_ = ws.Close()
		return nil, errors.Wrap(err, "mount widget")
	}
	ws.Session = sess
	return ws, nil
}
