package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"nexmosms/internal/validation"
	"nexmosms/pkg/nexmo"
	"nexmosms/pkg/nexmo/types"

	"github.com/kr/pretty"
)

type commandFunc func(ctx context.Context, a *app, args []string) error

var commands = map[string]commandFunc{
	"balance":      runBalance,
	"pricing":      runPricing,
	"dialing-code": runDialingCode,
	"numbers":      runNumbers,
	"search":       runSearch,
	"buy":          runBuy,
	"cancel":       runCancel,
	"send":         runSend,
	"send-binary":  runSendBinary,
	"wap":          runWap,
	"serve":        runServe,
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected arguments %v", errUsage, fs.Name(), fs.Args())
	}
	return nil
}

// print writes v with kr/pretty in raw mode and as plain text otherwise.
func (a *app) print(v interface{}, plain string) {
	if a.raw {
		pretty.Fprintf(a.out, "%# v\n", rawValue(v))
		return
	}
	fmt.Fprintln(a.out, plain)
}

// rawValue renders v as its normalized JSON tree, so amounts print as
// numbers rather than decimal internals.
func rawValue(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	node, err := nexmo.Decode(data)
	if err != nil {
		return v
	}
	return node.Interface()
}

func runBalance(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(newFlagSet("balance"), args); err != nil {
		return err
	}
	balance, err := a.account.Balance(ctx)
	if err != nil {
		return err
	}
	a.print(balance, balance.StringFixed(2))
	return nil
}

func countryFlag(fs *flag.FlagSet) *string {
	return fs.String("country", "", "ISO 3166-1 alpha-2 country code")
}

func runPricing(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("pricing")
	country := countryFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := validation.ValidateCountryCode(*country); err != nil {
		return err
	}
	price, err := a.account.SMSPricing(ctx, *country)
	if err != nil {
		return err
	}
	a.print(price, price.String())
	return nil
}

func runDialingCode(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("dialing-code")
	country := countryFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := validation.ValidateCountryCode(*country); err != nil {
		return err
	}
	code, err := a.account.DialingCode(ctx, *country)
	if err != nil {
		return err
	}
	a.print(code, code)
	return nil
}

func runNumbers(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(newFlagSet("numbers"), args); err != nil {
		return err
	}
	numbers, err := a.account.NumbersList(ctx)
	if err != nil {
		return err
	}
	a.printNumbers(numbers)
	return nil
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("search")
	country := countryFlag(fs)
	pattern := fs.String("pattern", "", "Digits the number must contain")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := validation.ValidateCountryCode(*country); err != nil {
		return err
	}
	numbers, err := a.account.NumbersSearch(ctx, *country, *pattern)
	if err != nil {
		return err
	}
	a.printNumbers(numbers)
	return nil
}

func (a *app) printNumbers(numbers []types.Number) {
	if a.raw {
		pretty.Fprintf(a.out, "%# v\n", rawValue(numbers))
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MSISDN\tCOUNTRY\tTYPE\tFEATURES\tCOST")
	for _, n := range numbers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", n.MSISDN, n.Country, n.Type, strings.Join(n.Features, ","), n.Cost.String())
	}
	w.Flush()
}

func numberChangeFlags(name string, args []string) (country, msisdn string, err error) {
	fs := newFlagSet(name)
	c := countryFlag(fs)
	m := fs.String("msisdn", "", "Number in international format")
	if err := parseFlags(fs, args); err != nil {
		return "", "", err
	}
	if err := validation.ValidateCountryCode(*c); err != nil {
		return "", "", err
	}
	if err := validation.ValidateMSISDN(*m); err != nil {
		return "", "", err
	}
	return *c, strings.TrimPrefix(*m, "+"), nil
}

func runBuy(ctx context.Context, a *app, args []string) error {
	country, msisdn, err := numberChangeFlags("buy", args)
	if err != nil {
		return err
	}
	if err := a.account.NumbersBuy(ctx, country, msisdn); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "bought %s\n", msisdn)
	return nil
}

func runCancel(ctx context.Context, a *app, args []string) error {
	country, msisdn, err := numberChangeFlags("cancel", args)
	if err != nil {
		return err
	}
	if err := a.account.NumbersCancel(ctx, country, msisdn); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "cancelled %s\n", msisdn)
	return nil
}

// addressFlags registers -to and -from, shared by every send command.
func addressFlags(fs *flag.FlagSet) (to, from *string) {
	return fs.String("to", "", "Recipient number in international format"),
		fs.String("from", "", "Sender number or alphanumeric name")
}

func checkAddresses(to, from string) error {
	if err := validation.ValidateMSISDN(to); err != nil {
		return err
	}
	return validation.ValidateStringLength(from, "from", 1, 64)
}

func parseUnicode(mode string) (*bool, error) {
	switch strings.ToLower(mode) {
	case "", "auto":
		return nil, nil
	case "on", "true", "yes":
		return types.Bool(true), nil
	case "off", "false", "no":
		return types.Bool(false), nil
	}
	return nil, fmt.Errorf("%w: -unicode must be auto, on or off", errUsage)
}

func runSend(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("send")
	to, from := addressFlags(fs)
	text := fs.String("text", "", "Message text")
	mode := fs.String("unicode", "auto", "Encoding: auto, on or off")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := checkAddresses(*to, *from); err != nil {
		return err
	}
	unicode, err := parseUnicode(*mode)
	if err != nil {
		return err
	}
	result, err := a.messages.SendText(ctx, strings.TrimPrefix(*to, "+"), *from, *text, unicode)
	if err != nil {
		return err
	}
	return a.printResult(result)
}

func runSendBinary(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("send-binary")
	to, from := addressFlags(fs)
	bodyHex := fs.String("body", "", "Message body as hex")
	udhHex := fs.String("udh", "", "User data header as hex")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := checkAddresses(*to, *from); err != nil {
		return err
	}
	body, err := hex.DecodeString(*bodyHex)
	if err != nil {
		return fmt.Errorf("%w: -body is not hex: %v", errUsage, err)
	}
	udh, err := hex.DecodeString(*udhHex)
	if err != nil {
		return fmt.Errorf("%w: -udh is not hex: %v", errUsage, err)
	}
	result, err := a.messages.SendBinary(ctx, strings.TrimPrefix(*to, "+"), *from, body, udh)
	if err != nil {
		return err
	}
	return a.printResult(result)
}

func runWap(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("wap")
	to, from := addressFlags(fs)
	title := fs.String("title", "", "Push title")
	url := fs.String("url", "", "Link to push")
	validity := fs.Duration("validity", 0, "How long the push stays valid (default 48h)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := checkAddresses(*to, *from); err != nil {
		return err
	}
	if *validity < 0 {
		return fmt.Errorf("%w: -validity must not be negative", errUsage)
	}
	result, err := a.messages.PushWap(ctx, strings.TrimPrefix(*to, "+"), *from, *title, *url, *validity)
	if err != nil {
		return err
	}
	return a.printResult(result)
}

// printResult shows one line per part. A send the gateway refused is
// reported as an error after printing.
func (a *app) printResult(result *types.SendResult) error {
	if a.raw {
		pretty.Fprintf(a.out, "%# v\n", rawValue(result))
	} else {
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PART\tSTATUS\tMESSAGE-ID\tPRICE\tBALANCE")
		for i, m := range result.Messages {
			fmt.Fprintf(w, "%d\t%d %s\t%s\t%s\t%s\n", i+1, m.StatusCode, m.StatusText, m.MessageID, m.Price.String(), m.RemainingBalance)
		}
		w.Flush()
		fmt.Fprintf(a.out, "parts: %d  total cost: %s\n", result.MessageCount, result.TotalCost.String())
	}

	if !result.Delivered() {
		return fmt.Errorf("gateway rejected %d of %d parts", rejectedParts(result), len(result.Messages))
	}
	return nil
}

func rejectedParts(result *types.SendResult) int {
	n := 0
	for _, m := range result.Messages {
		if !m.OK() {
			n++
		}
	}
	return n
}
