package retriever

import "github.com/netopslabs/netdocs/internal/vectorstore"

// sampleDoc is one built-in documentation page.
type sampleDoc struct {
	title   string
	content string
}

const sampleSource = "sample_docs"

// sampleDocs is the built-in documentation set indexed during
// initialization, covering the core areas of the network platform. It
// keeps the retriever useful before any remote or local sources are
// configured.
var sampleDocs = []sampleDoc{
	{
		title: "Platform Overview",
		content: `The platform is a network source of truth that stores authoritative
data about network infrastructure. It helps network engineers manage devices,
circuits, IP addresses, and other network resources through a web interface
and REST API.

Key features include:
- Device inventory management
- IP Address Management (IPAM)
- Circuit tracking
- Cable management
- Virtualization support
- Custom fields and relationships
- Extensible plugin system`,
	},
	{
		title: "Device Management",
		content: `The device management system tracks network devices including
routers, switches, servers, and other equipment. Devices can be organized by:

- Sites and locations
- Device types and roles
- Manufacturers and models
- Physical rack positions
- Device connections and cables

To view devices, navigate to Organization > Devices in the main menu.
To add a new device, click the + button and fill in the device details.`,
	},
	{
		title: "IP Address Management (IPAM)",
		content: `The IPAM system helps you manage IP addresses, prefixes, and VLANs.
Key IPAM features include:

- Prefix hierarchy and allocation
- IP address assignment tracking
- VLAN management
- VRF (Virtual Routing and Forwarding) support
- Automatic IP discovery
- Available IP address calculation

To access IPAM features, use the IPAM menu in the navigation bar.
You can view prefixes, IP addresses, and VLANs from their respective sections.`,
	},
	{
		title: "Circuit Management",
		content: `Provider circuits and their connections are tracked end to end.
Circuit management includes:

- Provider and circuit type tracking
- Circuit termination points
- Bandwidth and commitment tracking
- Circuit status monitoring
- Integration with device interfaces

To view circuits, navigate to Circuits > Circuits in the main menu.
Circuit types can be managed under Circuits > Circuit Types.`,
	},
	{
		title: "Navigation and Interface",
		content: `The web interface is organized into the following main sections:

- Organization: Sites, locations, racks, devices
- IPAM: IP addresses, prefixes, VLANs
- Circuits: Provider circuits and types
- Extras: Custom fields, tags, webhooks
- Admin: User management and system settings

Each section provides list views, detail views, and forms for creating and
editing objects. Use the search bar to quickly find specific items.
The + button allows you to create new objects in most sections.`,
	},
	{
		title: "REST API Usage",
		content: `A comprehensive REST API gives programmatic access to all data.
The API follows RESTful conventions and supports:

- GET requests for retrieving data
- POST requests for creating objects
- PATCH/PUT requests for updating objects
- DELETE requests for removing objects
- Filtering and pagination
- Authentication via API tokens

API documentation is available at /api/docs/ on your instance.
The base API URL is typically http://your-host/api/`,
	},
}

// chunkSampleDocs chunks the built-in documentation set.
func (r *Retriever) chunkSampleDocs() []vectorstore.Document {
	var docs []vectorstore.Document
	for _, sd := range sampleDocs {
		docs = append(docs, r.chunkDocument(sd.content, vectorstore.Metadata{
			Title:  sd.title,
			Source: sampleSource,
		})...)
	}
	return docs
}
