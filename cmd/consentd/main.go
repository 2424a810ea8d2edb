// consentd es el binario del motor de consents: serve levanta la API y el
// listener de métricas, migrate aplica el esquema de Postgres y token
// cifra/descifra IDs opacos para debugging.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env es opcional; en contenedores las vars vienen del entorno.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "consentd",
		Short: "Motor de ciclo de vida de consents y autorizaciones PSD2",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path del YAML de configuración")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newMigrateCmd(&configPath))
	root.AddCommand(newTokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
