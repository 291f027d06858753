// Package debug renders pods as readable trees.
//
// Tree decodes a pod into Nodes and Dump prints them:
//
//	Object: size 128, type Format (262147), id EnumFormat (3)
//	  Prop: key mediaType (1), flags 00000000
//	    Id 1 (audio)
//	  Prop: key rate (65539), flags 00000000
//	    Choice: type Range, flags 00000000, child.size 4, child.type Int
//	      Int 48000
//	      Int 1
//	      Int 192000
//
// Symbolic names come from a Registry. DefaultRegistry knows the common
// object types, param ids and format keys; LoadTOML adds more:
//
//	[objects.0x40003]
//	name = "Format"
//
//	[objects.0x40003.props.1]
//	name = "mediaType"
//	values = { 1 = "audio", 2 = "video" }
package debug
