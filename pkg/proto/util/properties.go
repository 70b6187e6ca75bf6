package util

import (
	"io"

	"go.craftchat.dev/craftchat/pkg/profile"
)

func ReadProperties(rd io.Reader) (props []profile.Property, err error) {
	var size int
	size, err = ReadVarInt(rd)
	if err != nil {
		return
	}
	props = make([]profile.Property, 0, size)
	var name, value, signature string
	for i := 0; i < size; i++ {
		name, err = ReadString(rd)
		if err != nil {
			return
		}
		value, err = ReadString(rd)
		if err != nil {
			return
		}
		signature = ""
		var hasSignature bool
		hasSignature, err = ReadBool(rd)
		if err != nil {
			return
		}
		if hasSignature {
			signature, err = ReadString(rd)
			if err != nil {
				return
			}
		}
		props = append(props, profile.Property{
			Name:      name,
			Value:     value,
			Signature: signature,
		})
	}
	return
}

func WriteProperties(wr io.Writer, props []profile.Property) error {
	err := WriteVarInt(wr, len(props))
	if err != nil {
		return err
	}
	for _, p := range props {
		err = WriteString(wr, p.Name)
		if err != nil {
			return err
		}
		err = WriteString(wr, p.Value)
		if err != nil {
			return err
		}
		hasSignature := p.Signature != ""
		err = WriteBool(wr, hasSignature)
		if err != nil {
			return err
		}
		if hasSignature {
			err = WriteString(wr, p.Signature)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
