package twilio

import (
	"bytes"
	"encoding/xml"
)

// twiml response used to connect the scanner leg after the owner answers.
type voiceResponse struct {
	XMLName xml.Name `xml:"Response"`
	Say     *say     `xml:"Say,omitempty"`
	Dial    *dial    `xml:"Dial,omitempty"`
}

type say struct {
	Voice    string `xml:"voice,attr,omitempty"`
	Language string `xml:"language,attr,omitempty"`
	Text     string `xml:",chardata"`
}

type dial struct {
	CallerID string `xml:"callerId,attr,omitempty"`
	Number   string `xml:"Number"`
}

// ConnectTwiML builds the TwiML that greets the owner and dials the scanner.
// An empty callerID omits the attribute and lets Twilio use its default.
func ConnectTwiML(scannerNumber, callerID string) (string, error) {
	doc := voiceResponse{
		Say: &say{
			Voice:    "alice",
			Language: "en-US",
			Text:     "Connecting you now. Please hold.",
		},
		Dial: &dial{
			CallerID: callerID,
			Number:   scannerNumber,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RejectTwiML tells the caller no connection could be made.
func RejectTwiML(message string) (string, error) {
	doc := voiceResponse{
		Say: &say{
			Voice:    "alice",
			Language: "en-US",
			Text:     message,
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
