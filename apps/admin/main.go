package main

import (
	"fmt"
	"log"
	"os"

	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/user"
	inmemdb "github.com/lejardineden/backend/storage/inmem"
	"github.com/lejardineden/backend/storage/mongodb"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up store
	usrRepo, closeStore, err := setUpStore(core.Conf)
	errAndDie(err)
	defer func() { errAndDie(closeStore()) }()

	// start CLI
	cli := commandLine{usrRepo: usrRepo}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func setUpStore(conf *core.Config) (user.Repository, func() error, error) {
	switch conf.Database.Engine {
	case "mongodb":
		db, err := mongodb.Open(conf.Database.URI, conf.Database.Name, conf.Database.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return mongodb.NewUserRepository(db), db.Close, nil
	case "memory":
		db, err := inmemdb.Open()
		if err != nil {
			return nil, nil, err
		}
		return inmemdb.NewUserRepository(db), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
