package mqtt

import "fmt"

// discoveryMsg is a Home Assistant MQTT discovery payload.
type discoveryMsg struct {
	Topic   string
	Payload []byte
}

type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Name         string   `json:"name"`
}

type haDiscovery struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	CommandTopic      string   `json:"command_topic,omitempty"`
	PayloadPress      string   `json:"payload_press,omitempty"`
	StateTopic        string   `json:"state_topic,omitempty"`
	ValueTemplate     string   `json:"value_template,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	Icon              string   `json:"icon,omitempty"`
	AvailabilityTopic string   `json:"availability_topic"`
	Device            haDevice `json:"device"`
}

type haButton struct {
	objectID string
	name     string
	key      string
	icon     string
}

var buttons = []haButton{
	{"power", "Power", "Standby", "mdi:power"},
	{"volume_up", "Volume Up", "VolumeUp", "mdi:volume-plus"},
	{"volume_down", "Volume Down", "VolumeDown", "mdi:volume-minus"},
	{"mute", "Mute", "Mute", "mdi:volume-mute"},
	{"home", "Home", "Home", "mdi:home"},
}

// buildDiscovery generates the button and connectivity entities for one TV.
func buildDiscovery(prefix, nodeID, displayName string) []discoveryMsg {
	avail := prefix + "/bridge/state"
	dev := haDevice{Identifiers: []string{nodeID}, Manufacturer: "Philips", Name: displayName}

	msgs := make([]discoveryMsg, 0, len(buttons)+1)
	for _, btn := range buttons {
		payload := haDiscovery{
			Name:              btn.name,
			UniqueID:          nodeID + "_" + btn.objectID,
			CommandTopic:      prefix + "/key/set",
			PayloadPress:      btn.key,
			Icon:              btn.icon,
			AvailabilityTopic: avail,
			Device:            dev,
		}
		msgs = append(msgs, discoveryMsg{
			Topic:   fmt.Sprintf("homeassistant/button/%s/%s/config", nodeID, btn.objectID),
			Payload: mustJSON(payload),
		})
	}

	reachable := haDiscovery{
		Name:              "Reachable",
		UniqueID:          nodeID + "_reachable",
		StateTopic:        prefix + "/state",
		ValueTemplate:     "{{ 'ON' if value_json.available else 'OFF' }}",
		DeviceClass:       "connectivity",
		AvailabilityTopic: avail,
		Device:            dev,
	}
	msgs = append(msgs, discoveryMsg{
		Topic:   fmt.Sprintf("homeassistant/binary_sensor/%s/reachable/config", nodeID),
		Payload: mustJSON(reachable),
	})
	return msgs
}
