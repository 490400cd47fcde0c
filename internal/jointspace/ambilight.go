package jointspace

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Ambilight styles accepted by ambilight/currentconfiguration.
const (
	StyleFollowVideo = "FOLLOW_VIDEO"
	StyleFollowAudio = "FOLLOW_AUDIO"
	StyleLounge      = "Lounge light"
)

// Default settings node IDs for ambilight lightness and saturation. They
// differ between firmware versions; see AmbilightNodes.
const (
	DefaultLightnessNode  = 2131230769
	DefaultSaturationNode = 2131230771
)

// Ambilight controls the TV's ambient lighting.
type Ambilight interface {
	AmbilightPower(ctx context.Context) (bool, error)
	SetAmbilightPower(ctx context.Context, on bool) error
	AmbilightConfiguration(ctx context.Context) (AmbilightConfiguration, error)
	SetAmbilightConfiguration(ctx context.Context, cfg AmbilightConfiguration) error
	AmbilightTopology(ctx context.Context) (AmbilightTopology, error)
	SetAmbilightColor(ctx context.Context, topology AmbilightTopology, color Color) error
	AmbilightLevels(ctx context.Context, nodes AmbilightNodes) (AmbilightLevels, error)
	SetAmbilightLevel(ctx context.Context, nodeID, value int) error
}

// AmbilightNodes names the settings nodes holding lightness and saturation.
type AmbilightNodes struct {
	Lightness  int
	Saturation int
}

// DefaultAmbilightNodes returns the node IDs used by most 2016+ firmware.
func DefaultAmbilightNodes() AmbilightNodes {
	return AmbilightNodes{Lightness: DefaultLightnessNode, Saturation: DefaultSaturationNode}
}

// AmbilightLevels holds the current slider positions.
type AmbilightLevels struct {
	Lightness  int
	Saturation int
}

// AmbilightConfiguration is the active ambilight mode.
type AmbilightConfiguration struct {
	StyleName   string `json:"styleName"`
	IsExpert    bool   `json:"isExpert"`
	MenuSetting string `json:"menuSetting,omitempty"`
}

// AmbilightTopology is the number of LED pixels per side.
type AmbilightTopology struct {
	Layers int `json:"layers"`
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Color is an 8-bit RGB value.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

type powerState struct {
	Power string `json:"power"`
}

type levelValue struct {
	Value int `json:"value"`
}

// AmbilightPower reports whether ambilight is on.
func (c *Client) AmbilightPower(ctx context.Context) (bool, error) {
	raw, err := c.Execute(ctx, http.MethodGet, "ambilight/power", nil)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	var state powerState
	if err := decode("ambilight/power", raw, &state); err != nil {
		return false, err
	}
	return strings.EqualFold(state.Power, "On"), nil
}

// SetAmbilightPower switches ambilight on or off.
func (c *Client) SetAmbilightPower(ctx context.Context, on bool) error {
	state := powerState{Power: "Off"}
	if on {
		state.Power = "On"
	}
	_, err := c.Execute(ctx, http.MethodPost, "ambilight/power", state)
	return err
}

// AmbilightConfiguration returns the active style.
func (c *Client) AmbilightConfiguration(ctx context.Context) (AmbilightConfiguration, error) {
	raw, err := c.Execute(ctx, http.MethodGet, "ambilight/currentconfiguration", nil)
	if err != nil {
		return AmbilightConfiguration{}, err
	}
	var cfg AmbilightConfiguration
	if raw == nil {
		return cfg, nil
	}
	if err := decode("ambilight/currentconfiguration", raw, &cfg); err != nil {
		return AmbilightConfiguration{}, err
	}
	return cfg, nil
}

// SetAmbilightConfiguration activates a style such as StyleFollowVideo.
func (c *Client) SetAmbilightConfiguration(ctx context.Context, cfg AmbilightConfiguration) error {
	if strings.TrimSpace(cfg.StyleName) == "" {
		return fmt.Errorf("ambilight style is empty")
	}
	_, err := c.Execute(ctx, http.MethodPost, "ambilight/currentconfiguration", cfg)
	return err
}

// AmbilightTopology reads the LED layout.
func (c *Client) AmbilightTopology(ctx context.Context) (AmbilightTopology, error) {
	raw, err := c.Execute(ctx, http.MethodGet, "ambilight/topology", nil)
	if err != nil {
		return AmbilightTopology{}, err
	}
	var topo AmbilightTopology
	if raw == nil {
		return topo, &DeviceError{Status: http.StatusOK, Path: "ambilight/topology", Err: fmt.Errorf("empty body")}
	}
	if err := decode("ambilight/topology", raw, &topo); err != nil {
		return AmbilightTopology{}, err
	}
	return topo, nil
}

// SetAmbilightColor paints every pixel of every layer with color.
func (c *Client) SetAmbilightColor(ctx context.Context, topology AmbilightTopology, color Color) error {
	_, err := c.Execute(ctx, http.MethodPost, "ambilight/cached", cachedColors(topology, color))
	return err
}

func cachedColors(topology AmbilightTopology, color Color) map[string]map[string]map[string]Color {
	layers := topology.Layers
	if layers < 1 {
		layers = 1
	}
	sides := map[string]int{
		"left":   topology.Left,
		"top":    topology.Top,
		"right":  topology.Right,
		"bottom": topology.Bottom,
	}
	out := make(map[string]map[string]map[string]Color, layers)
	for layer := 1; layer <= layers; layer++ {
		perSide := make(map[string]map[string]Color, len(sides))
		for side, count := range sides {
			if count <= 0 {
				continue
			}
			pixels := make(map[string]Color, count)
			for i := 0; i < count; i++ {
				pixels[strconv.Itoa(i)] = color
			}
			perSide[side] = pixels
		}
		out["layer"+strconv.Itoa(layer)] = perSide
	}
	return out
}

// AmbilightLevels reads lightness and saturation from their settings nodes.
func (c *Client) AmbilightLevels(ctx context.Context, nodes AmbilightNodes) (AmbilightLevels, error) {
	settings, err := c.GetSettings(ctx, nodes.Lightness, nodes.Saturation)
	if err != nil {
		return AmbilightLevels{}, err
	}
	var levels AmbilightLevels
	if s, ok := settings[nodes.Lightness]; ok {
		var v levelValue
		if err := s.Decode(&v); err != nil {
			return AmbilightLevels{}, &DeviceError{Status: http.StatusOK, Path: "menuitems/settings/current", Body: string(s.Data), Err: err}
		}
		levels.Lightness = v.Value
	}
	if s, ok := settings[nodes.Saturation]; ok {
		var v levelValue
		if err := s.Decode(&v); err != nil {
			return AmbilightLevels{}, &DeviceError{Status: http.StatusOK, Path: "menuitems/settings/current", Body: string(s.Data), Err: err}
		}
		levels.Saturation = v.Value
	}
	return levels, nil
}

// SetAmbilightLevel writes a slider value to a lightness or saturation node.
func (c *Client) SetAmbilightLevel(ctx context.Context, nodeID, value int) error {
	return c.UpdateSetting(ctx, nodeID, levelValue{Value: value})
}
