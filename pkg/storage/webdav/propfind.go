package webdav

import (
	"encoding/xml"
	"path"
	"strings"
)

// propfindBody is the DAV XML document sent with every PROPFIND request.
const propfindBody = `<?xml version="1.0" encoding="utf-8"?>
<D:propfind xmlns:D="DAV:">
  <D:prop>
    <D:displayname/>
    <D:getlastmodified/>
    <D:getcontentlength/>
    <D:resourcetype/>
  </D:prop>
</D:propfind>`

// multistatus mirrors the DAV:multistatus response document.
type multistatus struct {
	XMLName   xml.Name      `xml:"DAV: multistatus"`
	Responses []davResponse `xml:"response"`
}

type davResponse struct {
	Href     string     `xml:"href"`
	Propstat []propstat `xml:"propstat"`
}

type propstat struct {
	Status string `xml:"status"`
	Prop   prop   `xml:"prop"`
}

type prop struct {
	DisplayName   string       `xml:"displayname"`
	LastModified  string       `xml:"getlastmodified"`
	ContentLength string       `xml:"getcontentlength"`
	ResourceType  resourcetype `xml:"resourcetype"`
}

type resourcetype struct {
	Collection *struct{} `xml:"collection"`
}

// isCollection reports whether any successful propstat marks the response as
// a collection.
func (r davResponse) isCollection() bool {
	for _, ps := range r.Propstat {
		if ps.Prop.ResourceType.Collection != nil {
			return true
		}
	}
	return false
}

// listResources parses a multistatus body and returns the base names of the
// non-collection members, e.g. "workspace-default.json".
func listResources(body []byte) ([]string, error) {
	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, err
	}
	var names []string
	for _, resp := range ms.Responses {
		if resp.isCollection() {
			continue
		}
		href := strings.TrimRight(resp.Href, "/")
		if href == "" {
			continue
		}
		names = append(names, path.Base(href))
	}
	return names, nil
}
