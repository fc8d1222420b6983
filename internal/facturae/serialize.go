package facturae

import (
	"encoding/xml"
	"fmt"
)

// Serialize renders the document as XML with a UTF-8 declaration. This is
// the form handed to any consumer other than the signer.
func Serialize(f *Facturae) ([]byte, error) {
	body, err := SerializeForSigning(f)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// SerializeForSigning renders the document without an XML declaration. The
// signing service envelopes the root element directly and expects a
// declaration-free document.
func SerializeForSigning(f *Facturae) ([]byte, error) {
	body, err := xml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("serialize facturae: %w", err)
	}
	return body, nil
}

// Parse decodes a serialized document back into its typed form.
func Parse(data []byte) (*Facturae, error) {
	var f Facturae
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse facturae: %w", err)
	}
	return &f, nil
}
