package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/consentd/internal/security/opaque"
)

// newTokenCmd es la herramienta de debugging de IDs opacos: cifra IDs
// internos y descifra tokens capturados de requests. Usa la misma master
// key del servicio (CONSENTD_OPAQUE_MASTER_KEY).
func newTokenCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Cifra y descifra IDs opacos",
	}
	cmd.PersistentFlags().StringVar(&kind, "kind", "consent", "Tipo de recurso: consent|authorisation|payment")

	encrypt := &cobra.Command{
		Use:   "encrypt <id>",
		Short: "Cifra un ID interno como token opaco",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := opaque.NewFromEnv()
			if err != nil {
				return err
			}
			tok, err := codec.Encrypt(opaque.Kind(kind), args[0])
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	decrypt := &cobra.Command{
		Use:   "decrypt <token>",
		Short: "Descifra un token opaco a su ID interno",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := opaque.NewFromEnv()
			if err != nil {
				return err
			}
			id, err := codec.Decrypt(opaque.Kind(kind), args[0])
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}

	cmd.AddCommand(encrypt, decrypt)
	return cmd
}
