/*
Package jpegdoc reads and writes JPEG files as documents: ordered
sequences of elements that hold the segments, the entropy-coded scan data
and the fill bytes of the file. Segments are parsed into their fields,
checked against the encoding profile selected by the frame header, and
written back byte for byte when they aren't modified.

Every element carries a Mode: a profile, a strictness and a hierarchical
flag. Under Strict, field values must fall in the ranges of the profile
and the stream must follow the JPEG grammar. Under Lax, only the storage
width of each field is enforced and anomalies such as trailing bytes in a
segment or garbage between segments are kept so that they are written
back. Mode changes are checked against a whole element tree first and
applied only if no element objects.

Example: Print the elements of a file.

	package main

	import (
		"fmt"
		"os"

		jdoc "github.com/garyhouston/jpegdoc"
	)

	func main() {
		if len(os.Args) != 2 {
			fmt.Printf("Usage: %s file\n", os.Args[0])
			return
		}
		in, err := os.Open(os.Args[1])
		if err != nil {
			panic(err)
		}
		defer in.Close()
		doc, err := jdoc.Read(in, &jdoc.Options{Mode: jdoc.Mode{Strictness: jdoc.Lax}})
		if err != nil {
			panic(err)
		}
		for _, e := range doc.All() {
			fmt.Printf("%s, %d bytes\n", e.Name(), jdoc.Size(e))
		}
	}

Example: Strip COM, APP and JPG segments.

	for i := doc.Len() - 1; i >= 0; i-- {
		m, ok := doc.Item(i).(jdoc.Marked)
		if ok && (m.Marker() == jdoc.COM || m.Marker().IsAPP() || m.Marker().IsJPGn()) {
			doc.Delete(i)
		}
	}
	writer := bufio.NewWriter(out)
	if _, err := doc.WriteTo(writer); err != nil {
		panic(err)
	}
	if err := writer.Flush(); err != nil {
		panic(err)
	}

Example: Check the structure of a file.

	if err := doc.DetectProfile(); err != nil {
		fmt.Println(err)
	}
	for _, p := range doc.Check(jdoc.NonHierarchical{}) {
		fmt.Println(p)
	}
*/
package jpegdoc
