package banner

import "fmt"

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗██████╗ ███████╗██╗      █████╗ ██╗   ██╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██╔══██╗██╔════╝██║     ██╔══██╗╚██╗ ██╔╝
██║     ███████║███████║   ██║   ██████╔╝█████╗  ██║     ███████║ ╚████╔╝
██║     ██╔══██║██╔══██║   ██║   ██╔══██╗██╔══╝  ██║     ██╔══██║  ╚██╔╝
╚██████╗██║  ██║██║  ██║   ██║   ██║  ██║███████╗███████╗██║  ██║   ██║
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚═╝  ╚═╝╚══════╝╚══════╝╚═╝  ╚═╝   ╚═╝
`

// Print writes the startup banner with the effective runtime values.
func Print(addr, dataFile, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("Data file: %s\n", dataFile)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /api/auth/login          - Obtain a bearer token")
	fmt.Println("POST /api/messages/send-text  - Send a text message")
	fmt.Println("POST /api/messages/send-image - Send an image message (multipart)")
	fmt.Println("GET  /api/messages            - Paginate messages (offset, limit)")
	fmt.Println("GET  /ws                      - Realtime channel (send join-chat)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/api/auth/login' -d '{\"username\":\"testuser\",\"password\":\"testpass123\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/api/messages?offset=0&limit=10' -H 'Authorization: Bearer <token>'\n", addr)
}
