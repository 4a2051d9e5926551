// blinkcli walks a blink the way a wallet does: describe, fill the form,
// sign the returned transaction and follow next actions.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"

	"blinks/actions"
	"blinks/solprogram"
)

const maxSteps = 5

func main() {
	var (
		actionURL = flag.String("url", "", "action URL, e.g. http://localhost:8080/api/actions/join-challenge?challengeID=42")
		keypair   = flag.String("keypair", "", "solana-keygen JSON keypair file")
		rpcURL    = flag.String("rpc", "", "RPC endpoint used with -send, defaults to the cluster's")
		doSend    = flag.Bool("send", false, "broadcast signed transactions and wait for confirmation")
		index     = flag.Int("action", 0, "index of the linked action to run")
		params    = paramFlags{}
	)
	flag.Var(params, "param", "form value as key=value, repeatable")
	flag.Parse()

	if *actionURL == "" || *keypair == "" {
		flag.Usage()
		os.Exit(2)
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(*keypair)
	if err != nil {
		log.Fatalf("keypair: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *actionURL, key, params, *index, *doSend, *rpcURL); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, actionURL string, key solana.PrivateKey, params paramFlags, index int, doSend bool, rpcURL string) error {
	base, err := url.Parse(actionURL)
	if err != nil {
		return err
	}

	var solClient *solprogram.Client
	if doSend {
		if solClient, err = sender(base, rpcURL); err != nil {
			return err
		}
	}

	fmt.Println("#============ DESCRIBE ============#")
	desc, err := doGet[actions.ActionGetResponse](ctx, actionURL)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n", desc.Title, desc.Description)
	if desc.Disabled {
		msg := "action disabled"
		if desc.Error != nil {
			msg = desc.Error.Message
		}
		return errors.New(msg)
	}
	if desc.Links == nil || index >= len(desc.Links.Actions) {
		return fmt.Errorf("no linked action %d", index)
	}
	for i, a := range desc.Links.Actions {
		fmt.Printf("  [%d] %s\n", i, a.Label)
		for _, p := range a.Parameters {
			fmt.Printf("      -param %s=...  %s\n", p.Name, p.Label)
		}
	}

	target, err := fillHref(base, desc.Links.Actions[index].Href, params)
	if err != nil {
		return err
	}
	body := actions.ActionPostRequest{Account: key.PublicKey().String(), Data: params}

	for step := 0; step < maxSteps && target != ""; step++ {
		fmt.Printf("#============ POST %s ============#\n", target)
		res, err := doPost[postResult](ctx, target, body)
		if err != nil {
			return err
		}
		if res.Type == completedType {
			fmt.Printf("%s\n%s\n", res.Title, res.Description)
			return nil
		}
		fmt.Println(res.Message)

		tx, err := clientSign(res.Transaction, key)
		if err != nil {
			return fmt.Errorf("sign: %w", err)
		}
		if doSend {
			sig, err := send(ctx, solClient, tx)
			if err != nil {
				return err
			}
			fmt.Println("TX Hash:", sig)
			if err := waitConfirmed(ctx, base, sig); err != nil {
				return err
			}
		} else {
			raw, err := tx.MarshalBinary()
			if err != nil {
				return err
			}
			fmt.Println("Signed TX:", base64.StdEncoding.EncodeToString(raw))
		}

		target = ""
		if next := res.next(); next != "" {
			if target, err = fillHref(base, next, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// waitConfirmed polls the server's status endpoint until sig lands.
func waitConfirmed(ctx context.Context, base *url.URL, sig string) error {
	q := url.Values{"signature": {sig}}
	if c := base.Query().Get("clusterurl"); c != "" {
		q.Set("clusterurl", c)
	}
	statusURL, err := fillHref(base, "/api/transactions/status?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(time.Second),
		backoff.WithMaxElapsedTime(90*time.Second),
	)
	st, err := backoff.RetryWithData(func() (*solprogram.TransactionStatusResponse, error) {
		st, err := doGet[solprogram.TransactionStatusResponse](ctx, statusURL)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if st.Status == solprogram.StatusNotFound {
			return nil, errors.New("not yet confirmed")
		}
		return st, nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("confirm %s: %w", sig, err)
	}
	if st.Status == solprogram.StatusFailed {
		return fmt.Errorf("transaction failed: %s (%s)", *st.Error, st.ExplorerURL)
	}
	fmt.Println("Confirmed:", st.ExplorerURL)
	return nil
}
