// Package main implements the chainstate operator tool. It opens a coin
// store by URL and inspects it: aggregate statistics, single coin lookups
// and full dumps.
//
// Usage:
//
//	chainstate stats [--store URL]
//	chainstate get <txid:index> [--store URL]
//	chainstate dump [-n LIMIT] [--store URL]
package main

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/coins"
	"github.com/bsv-blockchain/chainstate/stores/coins/factory"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

var logger = ulogger.New("chainstate")

func main() {
	storeFlag := &cli.StringFlag{
		Name:  "store",
		Usage: "coin store URL (overrides the coinstore setting)",
	}

	app := &cli.App{
		Name:  "chainstate",
		Usage: "Inspect a chainstate coin store",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Print entry count and total value of a store",
				Action: stats,
				Flags:  []cli.Flag{storeFlag},
			},
			{
				Name:      "get",
				Usage:     "Look up one coin by outpoint",
				ArgsUsage: "<txid:index>",
				Action:    get,
				Flags:     []cli.Flag{storeFlag},
			},
			{
				Name:   "dump",
				Usage:  "Print every coin in the store",
				Action: dump,
				Flags: []cli.Flag{
					storeFlag,
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "stop after this many coins (0 = all)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openStore(c *cli.Context) (coins.Store, error) {
	tSettings := settings.NewSettings()

	storeURL := tSettings.CoinStore.StoreURL

	if s := c.String("store"); s != "" {
		var err error

		storeURL, err = url.Parse(s)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("invalid store URL %q", s, err)
		}
	}

	return factory.NewStore(logger, tSettings, storeURL)
}

func stats(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = store.Close()
	}()

	var (
		count      uint64
		totalValue uint64
		scriptSize uint64
	)

	err = store.Iterate(c.Context, func(_ model.Outpoint, coin *model.Coin) bool {
		count++
		totalValue += coin.Value
		scriptSize += uint64(len(coin.Script))

		return true
	})
	if err != nil {
		return err
	}

	fmt.Printf("coins:         %d\n", count)
	fmt.Printf("total value:   %d\n", totalValue)
	fmt.Printf("script bytes:  %d\n", scriptSize)

	return nil
}

func get(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.NewInvalidArgumentError("expected exactly one <txid:index> argument")
	}

	op, err := model.NewOutpointFromString(c.Args().First())
	if err != nil {
		return err
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = store.Close()
	}()

	coin, err := store.Get(c.Context, op)
	if err != nil {
		return err
	}

	printCoin(op, coin)

	return nil
}

func dump(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}

	defer func() {
		_ = store.Close()
	}()

	limit := c.Int("limit")
	printed := 0

	return store.Iterate(c.Context, func(op model.Outpoint, coin *model.Coin) bool {
		printCoin(op, coin)
		printed++

		return limit == 0 || printed < limit
	})
}

func printCoin(op model.Outpoint, coin *model.Coin) {
	fmt.Printf("%s value=%d height=%d coinbase=%t script=%x\n",
		op.String(), coin.Value, coin.Height, coin.Coinbase, coin.Script)
}
