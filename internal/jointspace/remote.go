package jointspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Remote is the device-control surface used by front ends. *Client implements it.
type Remote interface {
	SendKey(ctx context.Context, key Key) error
	GetSettings(ctx context.Context, nodeIDs ...int) (map[int]Setting, error)
	UpdateSetting(ctx context.Context, nodeID int, data any) error
	ListApplications(ctx context.Context) ([]Application, error)
	LaunchApplication(ctx context.Context, packageName, className, action string) error
	NetworkDevice(ctx context.Context) (*NetworkDevice, error)
	DiscoverHardwareAddress(ctx context.Context) (string, error)
	System(ctx context.Context, opts ...RequestOption) (SystemInfo, error)
	Ambilight
	Pairer
}

// Pairer runs the two-step pairing handshake.
type Pairer interface {
	RequestPairing(ctx context.Context) (*PairingSession, error)
	GrantPairing(ctx context.Context, session *PairingSession, pin string) error
}

// Ensure Client implements Remote at compile time.
var _ Remote = (*Client)(nil)

// Setting is one settings node value.
type Setting struct {
	NodeID int             `json:"Nodeid"`
	Data   json.RawMessage `json:"data"`
}

// Decode unmarshals the node data into dest.
func (s Setting) Decode(dest any) error {
	if len(s.Data) == 0 {
		return fmt.Errorf("node %d has no data", s.NodeID)
	}
	return json.Unmarshal(s.Data, dest)
}

// Application is an installed app as listed by the TV.
type Application struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Intent Intent `json:"intent"`
}

// Intent is the Android intent that launches an Application.
type Intent struct {
	Action    string    `json:"action"`
	Component Component `json:"component"`
}

// Component names the Android activity of an intent.
type Component struct {
	PackageName string `json:"packageName"`
	ClassName   string `json:"className"`
}

// NetworkDevice is a network interface of the TV.
type NetworkDevice struct {
	Type      string `json:"type"`
	MAC       string `json:"mac"`
	IP        string `json:"ip"`
	Netmask   string `json:"netmask"`
	Bssid     string `json:"bssid,omitempty"`
	WakeOnLAN string `json:"wake-on-lan,omitempty"`
}

// SystemInfo is the subset of the system node the remote uses.
type SystemInfo struct {
	Name         string     `json:"name"`
	Country      string     `json:"country"`
	MenuLanguage string     `json:"menulanguage"`
	APIVersion   APIVersion `json:"api_version"`
}

// APIVersion is the JointSpace protocol version reported by the TV.
type APIVersion struct {
	Major int `json:"Major"`
	Minor int `json:"Minor"`
	Patch int `json:"Patch"`
}

type keyRequest struct {
	Key Key `json:"key"`
}

type settingsRequest struct {
	Nodes []nodeRef `json:"nodes"`
}

type nodeRef struct {
	NodeID int `json:"nodeid"`
}

type settingsResponse struct {
	Values []struct {
		Value Setting `json:"value"`
	} `json:"values"`
}

type settingsUpdate struct {
	Values []settingsUpdateValue `json:"values"`
}

type settingsUpdateValue struct {
	Value settingsUpdateNode `json:"value"`
}

type settingsUpdateNode struct {
	NodeID int `json:"Nodeid"`
	Data   any `json:"data"`
}

type applicationsResponse struct {
	Applications []Application `json:"applications"`
}

type launchRequest struct {
	Intent Intent `json:"intent"`
}

// SendKey presses one remote-control key.
func (c *Client) SendKey(ctx context.Context, key Key) error {
	if strings.TrimSpace(string(key)) == "" {
		return fmt.Errorf("key is empty")
	}
	_, err := c.Execute(ctx, http.MethodPost, "input/key", keyRequest{Key: key})
	return err
}

// GetSettings reads the current value of the given nodes, keyed by node ID.
// An empty response yields an empty map.
func (c *Client) GetSettings(ctx context.Context, nodeIDs ...int) (map[int]Setting, error) {
	req := settingsRequest{Nodes: make([]nodeRef, 0, len(nodeIDs))}
	for _, id := range nodeIDs {
		req.Nodes = append(req.Nodes, nodeRef{NodeID: id})
	}
	raw, err := c.Execute(ctx, http.MethodPost, "menuitems/settings/current", req)
	if err != nil {
		return nil, err
	}
	settings := make(map[int]Setting, len(nodeIDs))
	if raw == nil {
		return settings, nil
	}
	var resp settingsResponse
	if err := decode("menuitems/settings/current", raw, &resp); err != nil {
		return nil, err
	}
	for _, v := range resp.Values {
		settings[v.Value.NodeID] = v.Value
	}
	return settings, nil
}

// UpdateSetting writes data to one settings node.
func (c *Client) UpdateSetting(ctx context.Context, nodeID int, data any) error {
	req := settingsUpdate{Values: []settingsUpdateValue{{Value: settingsUpdateNode{NodeID: nodeID, Data: data}}}}
	_, err := c.Execute(ctx, http.MethodPost, "menuitems/settings/update", req)
	return err
}

// ListApplications returns the installed apps. A TV that answers with no
// body has no apps to offer, which is not an error.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	raw, err := c.Execute(ctx, http.MethodGet, "applications", nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []Application{}, nil
	}
	var resp applicationsResponse
	if err := decode("applications", raw, &resp); err != nil {
		return nil, err
	}
	if resp.Applications == nil {
		return []Application{}, nil
	}
	return resp.Applications, nil
}

// LaunchApplication starts the activity packageName/className. An action of
// "" or "empty" launches without an act= clause.
func (c *Client) LaunchApplication(ctx context.Context, packageName, className, action string) error {
	if strings.TrimSpace(packageName) == "" || strings.TrimSpace(className) == "" {
		return fmt.Errorf("package and class are required")
	}
	req := launchRequest{Intent: Intent{
		Action:    intentAction(packageName, className, action),
		Component: Component{PackageName: packageName, ClassName: className},
	}}
	_, err := c.Execute(ctx, http.MethodPost, "activities/launch", req)
	return err
}

// Launch starts app using its own intent.
func (c *Client) Launch(ctx context.Context, app Application) error {
	return c.LaunchApplication(ctx, app.Intent.Component.PackageName, app.Intent.Component.ClassName, app.Intent.Action)
}

func intentAction(packageName, className, action string) string {
	action = strings.TrimSpace(action)
	var b strings.Builder
	b.WriteString("Intent { ")
	if action != "" && action != "empty" {
		b.WriteString("act=")
		b.WriteString(action)
		b.WriteString(" ")
	}
	b.WriteString("cmp=")
	b.WriteString(packageName)
	b.WriteString("/")
	b.WriteString(className)
	b.WriteString(" flg=0x20000000 }")
	return b.String()
}

// NetworkDevice returns the TV interface whose IP matches the configured
// host. It returns nil when none matches.
func (c *Client) NetworkDevice(ctx context.Context) (*NetworkDevice, error) {
	raw, err := c.Execute(ctx, http.MethodGet, "network/devices", nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var devices []NetworkDevice
	if err := decode("network/devices", raw, &devices); err != nil {
		return nil, err
	}

	host := c.Endpoint().Host
	addrs, err := c.lookupHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	wanted := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			wanted[ip.String()] = struct{}{}
		}
	}
	for i := range devices {
		ip := net.ParseIP(strings.TrimSpace(devices[i].IP))
		if ip == nil {
			continue
		}
		if _, ok := wanted[ip.String()]; ok {
			dev := devices[i]
			return &dev, nil
		}
	}
	return nil, nil
}

// DiscoverHardwareAddress looks up the TV's MAC through NetworkDevice and
// stores it for Wake-on-LAN. It returns "" when the TV does not report one.
func (c *Client) DiscoverHardwareAddress(ctx context.Context) (string, error) {
	dev, err := c.NetworkDevice(ctx)
	if err != nil {
		return "", err
	}
	if dev == nil || strings.TrimSpace(dev.MAC) == "" {
		return "", nil
	}
	c.SetHardwareAddress(dev.MAC)
	c.log.Info().Str("mac", dev.MAC).Msg("hardware address discovered")
	return strings.TrimSpace(dev.MAC), nil
}

// System reads the TV's system node.
func (c *Client) System(ctx context.Context, opts ...RequestOption) (SystemInfo, error) {
	raw, err := c.Execute(ctx, http.MethodGet, "system", nil, opts...)
	if err != nil {
		return SystemInfo{}, err
	}
	var info SystemInfo
	if raw == nil {
		return info, &DeviceError{Status: http.StatusOK, Path: "system", Err: fmt.Errorf("empty body")}
	}
	if err := decode("system", raw, &info); err != nil {
		return SystemInfo{}, err
	}
	return info, nil
}

func decode(path string, raw json.RawMessage, dest any) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return &DeviceError{Status: http.StatusOK, Path: path, Body: string(raw), Err: err}
	}
	return nil
}
