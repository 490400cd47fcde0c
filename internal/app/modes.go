package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/macdems/philipstv/internal/discover"
	"github.com/macdems/philipstv/internal/jointspace"
)

type keySender interface {
	SendKey(ctx context.Context, key jointspace.Key) error
}

// sendKey sends one documented key.
func sendKey(ctx context.Context, tv keySender, name string) error {
	key := jointspace.Key(strings.TrimSpace(name))
	if !key.Known() {
		return fmt.Errorf("unknown key %q", name)
	}
	if err := tv.SendKey(ctx, key); err != nil {
		return fmt.Errorf("send %s: %w", key, err)
	}
	return nil
}

type pairTarget interface {
	jointspace.Pairer
	Endpoint() jointspace.Endpoint
	DiscoverHardwareAddress(ctx context.Context) (string, error)
}

type pairStore interface {
	SaveEndpoint(ep jointspace.Endpoint) error
	SaveCredential(host string, cred jointspace.Credential) error
}

var errPairCancelled = errors.New("pairing cancelled")

// pairInteractive pairs with the current TV, reading PINs from in. A wrong
// PIN starts a new request and asks again.
func pairInteractive(ctx context.Context, tv pairTarget, st pairStore, in io.Reader, out io.Writer) error {
	host := tv.Endpoint().Host
	if host == "" {
		return jointspace.ErrNoEndpoint
	}
	lines := bufio.NewReader(in)

	for {
		session, err := tv.RequestPairing(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Enter the PIN shown on %s: ", host)
		pin, err := readLine(ctx, lines)
		if err != nil {
			return err
		}
		if pin == "" {
			return errPairCancelled
		}

		err = tv.GrantPairing(ctx, session, pin)
		if errors.Is(err, jointspace.ErrInvalidPIN) {
			fmt.Fprintln(out, "Wrong PIN, the TV shows a new one.")
			continue
		}
		if err != nil {
			return err
		}
		break
	}

	ep := tv.Endpoint()
	if ep.Credential == nil {
		return fmt.Errorf("%w: no credential after grant", jointspace.ErrPairingFailed)
	}
	if err := st.SaveCredential(ep.Host, *ep.Credential); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	if ep.HardwareAddress == "" {
		if mac, err := tv.DiscoverHardwareAddress(ctx); err != nil {
			fmt.Fprintf(out, "Could not read the hardware address: %v\n", err)
		} else {
			ep.HardwareAddress = mac
		}
	}
	if err := st.SaveEndpoint(ep); err != nil {
		return fmt.Errorf("save endpoint: %w", err)
	}
	fmt.Fprintf(out, "Paired with %s as %s\n", ep.Host, ep.Credential.Username)
	return nil
}

// readLine returns the next trimmed line, giving up when ctx ends. A final
// line without a newline still counts.
func readLine(ctx context.Context, r *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{line, err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		line := strings.TrimSpace(res.line)
		switch {
		case res.err == nil:
		case !errors.Is(res.err, io.EOF):
			return "", fmt.Errorf("read pin: %w", res.err)
		case line == "":
			return "", errPairCancelled
		}
		return line, nil
	}
}

// runDiscover browses once for window and prints what answered.
func runDiscover(ctx context.Context, e *env, window time.Duration, out io.Writer) error {
	registry := &discover.Registry{}
	browser := discover.NewBrowser(registry, discover.BrowserOptions{
		BrowseWindow: window,
		Probe:        discover.SystemProbe(e.cfg.TV.Port, e.cfg.TV.APIVersion, e.cfg.TV.InsecureSkipVerify),
		Logger:       &e.log,
	})
	if err := browser.Cycle(ctx); err != nil && len(registry.Snapshot()) == 0 {
		return fmt.Errorf("discover: %w", err)
	}

	paired := make(map[string]bool)
	hosts, err := e.store.Hosts()
	if err != nil {
		return fmt.Errorf("list paired hosts: %w", err)
	}
	for _, h := range hosts {
		paired[h] = true
	}
	return printDevices(out, registry.Snapshot(), paired)
}

func printDevices(out io.Writer, devices []discover.Device, paired map[string]bool) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(out, "No TVs found")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADDRESS\tSERVICE\tPAIRED")
	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "-"
		}
		state := "no"
		if paired[d.Address] {
			state = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, d.Address, d.Service, state)
	}
	return tw.Flush()
}
